// Package branding handles tenant presentation assets.
package branding

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/objectstore"
)

const (
	// MaxLogoBytes caps the uploaded file size.
	MaxLogoBytes = 5 << 20
	// LogoMaxSize is the bounding box the logo is fitted into.
	LogoMaxSize = 512
	// SettingLogoURL is the tenant settings key holding the logo URL.
	SettingLogoURL = "logo_url"
)

// Logo describes a stored tenant logo.
type Logo struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Service resizes logos and publishes them to object storage.
type Service struct {
	tenants repository.TenantRepository
	store   objectstore.Store
	now     func() time.Time
}

func NewService(tenants repository.TenantRepository, store objectstore.Store) *Service {
	return &Service{tenants: tenants, store: store, now: time.Now}
}

// UploadLogo validates and normalizes the image to PNG within LogoMaxSize,
// uploads it and records its URL in the tenant settings.
func (s *Service) UploadLogo(ctx context.Context, tenantID uint, filename string, data []byte) (*Logo, error) {
	if s.store == nil {
		return nil, apperrors.Configuration("armazenamento de arquivos não configurado")
	}
	if len(data) == 0 {
		return nil, apperrors.Validation("logo", "Arquivo vazio")
	}
	if len(data) > MaxLogoBytes {
		return nil, apperrors.Validation("logo", "Arquivo maior que 5 MB")
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := ValidateLogo(filename, head); err != nil {
		return nil, err
	}

	body, w, h, err := NormalizeLogo(data)
	if err != nil {
		return nil, err
	}

	key := objectstore.LogoKey(tenantID, strconv.FormatInt(s.now().UnixNano(), 36))
	if _, err := s.store.Put(ctx, key, "image/png", body); err != nil {
		return nil, err
	}
	url := s.store.PublicURL(key)

	if err := s.tenants.MergeSettings(ctx, tenantID, map[string]interface{}{SettingLogoURL: url}); err != nil {
		// the object is orphaned otherwise
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.L().Warn("failed to remove orphaned logo", zap.String("key", key), zap.Error(delErr))
		}
		return nil, fmt.Errorf("save logo url: %w", err)
	}

	logger.L().Info("tenant logo updated", zap.Uint("tenant_id", tenantID), zap.String("key", key))
	return &Logo{Key: key, URL: url, Width: w, Height: h}, nil
}

// NormalizeLogo decodes data, applies EXIF orientation, fits it into
// LogoMaxSize and encodes it as PNG.
func NormalizeLogo(data []byte) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, apperrors.Validation("logo", "Imagem inválida")
	}
	b := img.Bounds()
	if b.Dx() > LogoMaxSize || b.Dy() > LogoMaxSize {
		img = imaging.Fit(img, LogoMaxSize, LogoMaxSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, 0, 0, fmt.Errorf("encode logo: %w", err)
	}
	out := img.Bounds()
	return buf.Bytes(), out.Dx(), out.Dy(), nil
}
