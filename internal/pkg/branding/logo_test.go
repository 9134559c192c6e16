package branding

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vortex-Hub-Tech/agendamento/app/repository"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/objectstore"
)

type fakeTenants struct {
	repository.TenantRepository
	merged map[string]interface{}
	err    error
}

func (f *fakeTenants) MergeSettings(_ context.Context, _ uint, settings map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.merged = settings
	return nil
}

type memStore struct {
	objects map[string][]byte
	deleted []string
}

func (m *memStore) Put(_ context.Context, key, contentType string, body []byte) (*objectstore.PutResult, error) {
	m.objects[key] = body
	return &objectstore.PutResult{ObjectKey: key, Size: int64(len(body)), ContentType: contentType}, nil
}

func (m *memStore) PresignGet(context.Context, string, time.Duration) (string, error) { return "", nil }

func (m *memStore) PublicURL(key string) string { return "https://cdn.example/" + key }

func (m *memStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateLogo(t *testing.T) {
	_, err := ValidateLogo("logo.svg", []byte("<svg></svg>"))
	assert.True(t, apperrors.IsValidation(err))

	_, err = ValidateLogo("logo.png", []byte("<html><script>alert(1)</script></html>"))
	assert.True(t, apperrors.IsValidation(err))

	mime, err := ValidateLogo("logo.PNG", pngBytes(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
}

func TestNormalizeLogo_FitsLargeImages(t *testing.T) {
	out, w, h, err := NormalizeLogo(pngBytes(t, 2048, 1024))
	require.NoError(t, err)
	assert.Equal(t, LogoMaxSize, w)
	assert.Equal(t, LogoMaxSize/2, h)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, LogoMaxSize, img.Bounds().Dx())
}

func TestNormalizeLogo_KeepsSmallImages(t *testing.T) {
	_, w, h, err := NormalizeLogo(pngBytes(t, 100, 80))
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)
}

func TestNormalizeLogo_Garbage(t *testing.T) {
	_, _, _, err := NormalizeLogo([]byte("not an image"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestUploadLogo_StoresAndRecordsURL(t *testing.T) {
	tenants := &fakeTenants{}
	store := &memStore{objects: map[string][]byte{}}
	svc := NewService(tenants, store)
	svc.now = func() time.Time { return time.Unix(0, 36) }

	logo, err := svc.UploadLogo(context.Background(), 3, "logo.png", pngBytes(t, 600, 600))
	require.NoError(t, err)
	assert.Equal(t, "tenants/3/logo-10.png", logo.Key)
	assert.Equal(t, "https://cdn.example/tenants/3/logo-10.png", logo.URL)
	assert.Equal(t, LogoMaxSize, logo.Width)
	assert.Contains(t, store.objects, logo.Key)
	assert.Equal(t, logo.URL, tenants.merged[SettingLogoURL])
}

func TestUploadLogo_RemovesObjectWhenSettingsFail(t *testing.T) {
	tenants := &fakeTenants{err: errors.New("db down")}
	store := &memStore{objects: map[string][]byte{}}
	svc := NewService(tenants, store)

	_, err := svc.UploadLogo(context.Background(), 3, "logo.png", pngBytes(t, 10, 10))
	require.Error(t, err)
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)
}

func TestUploadLogo_Validation(t *testing.T) {
	svc := NewService(&fakeTenants{}, &memStore{objects: map[string][]byte{}})

	_, err := svc.UploadLogo(context.Background(), 1, "logo.png", nil)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UploadLogo(context.Background(), 1, "logo.png", make([]byte, MaxLogoBytes+1))
	assert.True(t, apperrors.IsValidation(err))

	_, err = NewService(&fakeTenants{}, nil).UploadLogo(context.Background(), 1, "logo.png", pngBytes(t, 1, 1))
	assert.True(t, apperrors.IsConfiguration(err))
}
