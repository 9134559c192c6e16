package devices

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

type key struct {
	tenant uint
	local  string
}

type memRepo struct {
	rows        map[key]*models.Device
	tenantOwner map[uint]string
	nextID      uint
	// raceWinner is inserted right before the first CreateIfAbsent call
	raceWinner *models.Device
	updates    int
	lookupCtx  context.Context
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[key]*models.Device{}, tenantOwner: map[uint]string{}}
}

func (m *memRepo) GetByLocalID(_ context.Context, tenantID uint, localID string) (*models.Device, error) {
	if d, ok := m.rows[key{tenantID, localID}]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) GetByCanonicalID(ctx context.Context, tenantID uint, canonicalID string) (*models.Device, error) {
	m.lookupCtx = ctx
	for _, d := range m.rows {
		if d.TenantID == tenantID && d.CanonicalDeviceID == canonicalID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) CreateIfAbsent(_ context.Context, d *models.Device) (bool, error) {
	if m.raceWinner != nil {
		w := m.raceWinner
		m.raceWinner = nil
		m.nextID++
		w.ID = m.nextID
		m.rows[key{w.TenantID, w.LocalDeviceID}] = w
	}
	k := key{d.TenantID, d.LocalDeviceID}
	if _, ok := m.rows[k]; ok {
		return false, nil
	}
	m.nextID++
	d.ID = m.nextID
	cp := *d
	m.rows[k] = &cp
	return true, nil
}

func (m *memRepo) UpdateFingerprint(_ context.Context, d *models.Device) error {
	m.updates++
	cp := *d
	m.rows[key{d.TenantID, d.LocalDeviceID}] = &cp
	return nil
}

func (m *memRepo) MarkOwner(_ context.Context, id uint) error {
	for _, d := range m.rows {
		if d.ID == id {
			d.IsOwner = true
		}
	}
	return nil
}

func (m *memRepo) ClaimTenantOwner(_ context.Context, tenantID uint, canonicalID string) (bool, error) {
	if _, ok := m.tenantOwner[tenantID]; ok {
		return false, nil
	}
	m.tenantOwner[tenantID] = canonicalID
	return true, nil
}

var pixel = models.DeviceFingerprint{
	Brand: "google", Model: "Pixel 7", OSName: "Android", OSVersion: "14",
	Manufacturer: "Google", DeviceType: "PHONE", AppVersion: "1.0.0", BuildNumber: "10",
}

func TestResolve_NewDevice(t *testing.T) {
	svc := NewService(newMemRepo())
	res, err := svc.Resolve(context.Background(), 1, "local-abc", pixel)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, res.Status)
	assert.True(t, strings.HasPrefix(res.CanonicalDeviceID, models.CanonicalDeviceIDPrefix))
	assert.Len(t, res.CanonicalDeviceID, len(models.CanonicalDeviceIDPrefix)+36)
}

func TestResolve_RestoredKeepsCanonicalID(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	first, err := svc.Resolve(context.Background(), 1, "local-abc", pixel)
	require.NoError(t, err)

	upgraded := pixel
	upgraded.AppVersion = "1.1.0"
	upgraded.BuildNumber = "11"
	second, err := svc.Resolve(context.Background(), 1, "local-abc", upgraded)
	require.NoError(t, err)
	assert.Equal(t, StatusRestored, second.Status)
	assert.Equal(t, first.CanonicalDeviceID, second.CanonicalDeviceID)
	assert.Equal(t, "1.1.0", repo.rows[key{1, "local-abc"}].AppVersion)
}

func TestResolve_SuspiciousStillUpdates(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	first, err := svc.Resolve(context.Background(), 1, "local-abc", pixel)
	require.NoError(t, err)

	for _, mutate := range []func(*models.DeviceFingerprint){
		func(f *models.DeviceFingerprint) { f.Brand = "samsung" },
		func(f *models.DeviceFingerprint) { f.Model = "Pixel 8" },
		func(f *models.DeviceFingerprint) { f.OSName = "iOS" },
		func(f *models.DeviceFingerprint) { f.OSVersion = "15" },
		func(f *models.DeviceFingerprint) { f.Manufacturer = "Other" },
	} {
		fp := repo.rows[key{1, "local-abc"}].Fingerprint()
		mutate(&fp)
		res, err := svc.Resolve(context.Background(), 1, "local-abc", fp)
		require.NoError(t, err)
		assert.Equal(t, StatusSuspicious, res.Status)
		assert.Equal(t, first.CanonicalDeviceID, res.CanonicalDeviceID)
		assert.Equal(t, fp, repo.rows[key{1, "local-abc"}].Fingerprint())
	}
}

func TestResolve_SameLocalIDDifferentTenants(t *testing.T) {
	svc := NewService(newMemRepo())
	a, err := svc.Resolve(context.Background(), 1, "local-abc", pixel)
	require.NoError(t, err)
	b, err := svc.Resolve(context.Background(), 2, "local-abc", pixel)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, b.Status)
	assert.NotEqual(t, a.CanonicalDeviceID, b.CanonicalDeviceID)
}

func TestResolve_LostInsertRaceReusesWinner(t *testing.T) {
	repo := newMemRepo()
	winner := &models.Device{CanonicalDeviceID: "device_winner", LocalDeviceID: "local-abc", TenantID: 1}
	winner.ApplyFingerprint(pixel)
	repo.raceWinner = winner

	res, err := NewService(repo).Resolve(context.Background(), 1, "local-abc", pixel)
	require.NoError(t, err)
	assert.Equal(t, StatusRestored, res.Status)
	assert.Equal(t, "device_winner", res.CanonicalDeviceID)
	assert.Len(t, repo.rows, 1)
}

func TestResolve_RequiresLocalID(t *testing.T) {
	_, err := NewService(newMemRepo()).Resolve(context.Background(), 1, "  ", pixel)
	assert.True(t, apperrors.IsValidation(err))
}

func TestClaimOwnership_FirstClaimWins(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	a, err := svc.Resolve(context.Background(), 1, "phone-a", pixel)
	require.NoError(t, err)
	b, err := svc.Resolve(context.Background(), 1, "phone-b", pixel)
	require.NoError(t, err)

	claimA, err := svc.ClaimOwnership(context.Background(), 1, a.CanonicalDeviceID)
	require.NoError(t, err)
	assert.True(t, claimA.FirstClaim)
	assert.True(t, repo.rows[key{1, "phone-a"}].IsOwner)

	claimB, err := svc.ClaimOwnership(context.Background(), 1, b.CanonicalDeviceID)
	require.NoError(t, err)
	assert.False(t, claimB.FirstClaim)
	assert.True(t, claimB.IsOwner)
	assert.Equal(t, a.CanonicalDeviceID, repo.tenantOwner[1])
}

func TestClaimOwnership_UnknownDevice(t *testing.T) {
	_, err := NewService(newMemRepo()).ClaimOwnership(context.Background(), 1, "device_missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIsOwner(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	a, err := svc.Resolve(context.Background(), 1, "phone-a", pixel)
	require.NoError(t, err)

	owner, err := svc.IsOwner(context.Background(), 1, a.CanonicalDeviceID)
	require.NoError(t, err)
	assert.False(t, owner)

	_, err = svc.ClaimOwnership(context.Background(), 1, a.CanonicalDeviceID)
	require.NoError(t, err)
	owner, err = svc.IsOwner(context.Background(), 1, a.CanonicalDeviceID)
	require.NoError(t, err)
	assert.True(t, owner)

	owner, err = svc.IsOwner(context.Background(), 1, "device_missing")
	require.NoError(t, err)
	assert.False(t, owner)
}

type requestKey struct{}

func TestClaimOwnership_PassesCallerContext(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	a, err := svc.Resolve(context.Background(), 1, "phone-a", pixel)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), requestKey{}, "req-1"))
	_, err = svc.ClaimOwnership(ctx, 1, a.CanonicalDeviceID)
	require.NoError(t, err)
	require.NotNil(t, repo.lookupCtx)
	assert.Equal(t, "req-1", repo.lookupCtx.Value(requestKey{}))

	cancel()
	assert.Error(t, repo.lookupCtx.Err())
}
