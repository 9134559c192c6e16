package devices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

// Status classifies a registration call.
type Status string

const (
	StatusNew        Status = "new"
	StatusRestored   Status = "restored"
	StatusSuspicious Status = "suspicious"
)

// Resolution is returned to the mobile client after registration.
type Resolution struct {
	Status            Status `json:"status"`
	CanonicalDeviceID string `json:"canonical_device_id"`
}

// ClaimResult reports the outcome of an ownership claim.
type ClaimResult struct {
	CanonicalDeviceID string `json:"canonical_device_id"`
	IsOwner           bool   `json:"is_owner"`
	FirstClaim        bool   `json:"first_claim"`
}

// Service reconciles device fingerprints with canonical device ids.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// NewService creates a device service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		newID: func() string {
			return models.CanonicalDeviceIDPrefix + uuid.NewString()
		},
	}
}

// NewServiceFromDB creates a device service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Resolve registers or refreshes a device. A fingerprint change on an existing
// device is reported as suspicious but never blocks the update.
func (s *Service) Resolve(ctx context.Context, tenantID uint, localID string, fp models.DeviceFingerprint) (*Resolution, error) {
	localID = strings.TrimSpace(localID)
	if localID == "" {
		return nil, apperrors.Validation("local_device_id", "Identificador do dispositivo é obrigatório")
	}

	existing, err := s.repo.GetByLocalID(ctx, tenantID, localID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup device: %w", err)
	}

	if existing == nil {
		d := &models.Device{
			CanonicalDeviceID: s.newID(),
			LocalDeviceID:     localID,
			TenantID:          tenantID,
			LastSeenAt:        s.now(),
		}
		d.ApplyFingerprint(fp)
		created, err := s.repo.CreateIfAbsent(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("create device: %w", err)
		}
		if created {
			return &Resolution{Status: StatusNew, CanonicalDeviceID: d.CanonicalDeviceID}, nil
		}
		// lost the insert race, continue with the winner's row
		existing, err = s.repo.GetByLocalID(ctx, tenantID, localID)
		if err != nil {
			return nil, fmt.Errorf("reload device: %w", err)
		}
	}

	status := StatusRestored
	if fingerprintChanged(existing.Fingerprint(), fp) {
		status = StatusSuspicious
	}
	existing.ApplyFingerprint(fp)
	existing.LastSeenAt = s.now()
	if err := s.repo.UpdateFingerprint(ctx, existing); err != nil {
		return nil, fmt.Errorf("update device: %w", err)
	}
	return &Resolution{Status: status, CanonicalDeviceID: existing.CanonicalDeviceID}, nil
}

// ClaimOwnership flags the device as a provider device. The first claim also
// becomes the tenant's owner device.
func (s *Service) ClaimOwnership(ctx context.Context, tenantID uint, canonicalID string) (*ClaimResult, error) {
	d, err := s.repo.GetByCanonicalID(ctx, tenantID, canonicalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("device", canonicalID)
		}
		return nil, fmt.Errorf("lookup device: %w", err)
	}
	if !d.IsOwner {
		if err := s.repo.MarkOwner(ctx, d.ID); err != nil {
			return nil, fmt.Errorf("mark owner: %w", err)
		}
	}
	claimed, err := s.repo.ClaimTenantOwner(ctx, tenantID, d.CanonicalDeviceID)
	if err != nil {
		return nil, fmt.Errorf("claim tenant owner: %w", err)
	}
	return &ClaimResult{CanonicalDeviceID: d.CanonicalDeviceID, IsOwner: true, FirstClaim: claimed}, nil
}

// IsOwner reports whether the device already holds provider ownership. An
// unknown device is not an owner.
func (s *Service) IsOwner(ctx context.Context, tenantID uint, canonicalID string) (bool, error) {
	d, err := s.repo.GetByCanonicalID(ctx, tenantID, canonicalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup device: %w", err)
	}
	return d.IsOwner, nil
}

// fingerprintChanged compares the identity fields. App version and build
// number change on every update and are ignored.
func fingerprintChanged(stored, incoming models.DeviceFingerprint) bool {
	return stored.Brand != incoming.Brand ||
		stored.Model != incoming.Model ||
		stored.OSName != incoming.OSName ||
		stored.OSVersion != incoming.OSVersion ||
		stored.Manufacturer != incoming.Manufacturer
}
