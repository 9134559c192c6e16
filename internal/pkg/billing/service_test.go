package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
)

const token = "whsec-test"

type memRepo struct {
	events   map[string]*models.BillingWebhookEvent
	nextID   uint
	plans    map[string]*models.Plan
	pending  map[string]*models.PendingPayment
	tenants  map[uint]*models.Tenant
	subs     map[uint]*models.TenantSubscription
	failNext error
}

func newMemRepo() *memRepo {
	return &memRepo{
		events: map[string]*models.BillingWebhookEvent{},
		plans: map[string]*models.Plan{
			"starter":      {ID: 1, Slug: "starter"},
			"professional": {ID: 2, Slug: "professional"},
		},
		pending: map[string]*models.PendingPayment{},
		tenants: map[uint]*models.Tenant{},
		subs:    map[uint]*models.TenantSubscription{},
	}
}

func (m *memRepo) CreateWebhookEventIfNotExists(_ context.Context, e *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := e.Provider + "/" + e.ProviderEventID
	if stored, ok := m.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.events[key] = &cp
	return true, e, nil
}

func (m *memRepo) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	for _, e := range m.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}

func (m *memRepo) PlanBySlug(_ context.Context, slug string) (*models.Plan, error) {
	if p, ok := m.plans[slug]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) SlugTaken(_ context.Context, slug string) (bool, error) {
	for _, t := range m.tenants {
		if t.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) CreatePendingPayment(_ context.Context, p *models.PendingPayment) error {
	m.pending[p.Reference] = p
	return nil
}

func (m *memRepo) GetPendingPayment(_ context.Context, reference string) (*models.PendingPayment, error) {
	if p, ok := m.pending[reference]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) ProvisionTenant(_ context.Context, reference string, now time.Time) (*models.Tenant, error) {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, err
	}
	p, ok := m.pending[reference]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if p.Status != models.PendingPaymentStatusPending {
		return &models.Tenant{ID: *p.TenantID}, ErrAlreadyProvisioned
	}
	plan := m.plans[p.PlanSlug]
	id := uint(len(m.tenants) + 100)
	t := &models.Tenant{ID: id, Name: p.TenantName, Slug: p.TenantSlug, Status: models.TenantStatusActive}
	m.tenants[id] = t
	m.subs[id] = &models.TenantSubscription{TenantID: id, PlanID: plan.ID, Status: models.SubscriptionStatusActive, StartedAt: now}
	p.Status = models.PendingPaymentStatusCompleted
	p.TenantID = &id
	p.CompletedAt = &now
	return t, nil
}

func (m *memRepo) SetBillingState(_ context.Context, tenantID uint, subStatus, tenantStatus string, now time.Time) error {
	t, ok := m.tenants[tenantID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = tenantStatus
	if sub, ok := m.subs[tenantID]; ok {
		sub.Status = subStatus
	} else if subStatus == models.SubscriptionStatusActive {
		m.subs[tenantID] = &models.TenantSubscription{TenantID: tenantID, PlanID: 1, Status: subStatus, StartedAt: now}
	}
	return nil
}

type invalidations []uint

func (i *invalidations) Invalidate(_ context.Context, tenantID uint) { *i = append(*i, tenantID) }

func setup() (*Service, *memRepo, *invalidations) {
	repo := newMemRepo()
	inv := &invalidations{}
	return NewService(repo, inv, token), repo, inv
}

func paymentEvent(id, event, ref string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"event":%q,"payment":{"id":"pay_1","value":79.9,"externalReference":%q}}`, id, event, ref))
}

func signup(t *testing.T, svc *Service) *models.PendingPayment {
	t.Helper()
	p, err := svc.Signup(context.Background(), SignupInput{
		Name: "Studio Bela", Slug: "studio-bela", PlanSlug: "professional",
		Email: "dona@studiobela.com.br", Phone: "11999990000",
	})
	require.NoError(t, err)
	return p
}

func TestSignup(t *testing.T) {
	svc, repo, _ := setup()
	p := signup(t, svc)
	assert.Contains(t, p.Reference, "signup_")
	assert.Equal(t, models.PendingPaymentStatusPending, p.Status)
	assert.Same(t, p, repo.pending[p.Reference])

	_, err := svc.Signup(context.Background(), SignupInput{Name: "x", Slug: "Bad Slug!", PlanSlug: "starter"})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Signup(context.Background(), SignupInput{Name: "x", Slug: "ok-slug", PlanSlug: "gold"})
	assert.True(t, apperrors.IsValidation(err))

	repo.tenants[1] = &models.Tenant{ID: 1, Slug: "taken"}
	_, err = svc.Signup(context.Background(), SignupInput{Name: "x", Slug: "taken", PlanSlug: "starter"})
	assert.True(t, apperrors.IsConflict(err))
}

func TestWebhook_ProvisionsOnce(t *testing.T) {
	svc, repo, inv := setup()
	p := signup(t, svc)

	res, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_1", EventPaymentConfirmed, p.Reference))
	require.NoError(t, err)
	assert.Equal(t, ActionProvisioned, res.Action)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, *p.TenantID, res.TenantID)
	assert.Equal(t, models.SubscriptionStatusActive, repo.subs[res.TenantID].Status)
	assert.Equal(t, uint(2), repo.subs[res.TenantID].PlanID)
	assert.Equal(t, []uint{res.TenantID}, []uint(*inv))

	// same event delivered again
	dup, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_1", EventPaymentConfirmed, p.Reference))
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)

	// a second confirming event for the same reference does not provision twice
	again, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_2", EventPaymentReceived, p.Reference))
	require.NoError(t, err)
	assert.Equal(t, ActionNoop, again.Action)
	assert.Len(t, repo.tenants, 1)
}

func TestWebhook_InvalidToken(t *testing.T) {
	svc, repo, _ := setup()
	p := signup(t, svc)

	_, err := svc.HandleWebhook(context.Background(), "wrong", paymentEvent("evt_1", EventPaymentConfirmed, p.Reference))
	assert.ErrorIs(t, err, ErrInvalidWebhookToken)
	require.Len(t, repo.events, 1)
	for _, e := range repo.events {
		assert.False(t, e.SignatureValid)
		assert.Equal(t, ErrInvalidWebhookToken.Error(), e.ProcessingError)
	}
	assert.Empty(t, repo.tenants)

	// the genuine delivery is not treated as a duplicate of the rejected one
	res, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_1", EventPaymentConfirmed, p.Reference))
	require.NoError(t, err)
	assert.Equal(t, ActionProvisioned, res.Action)
}

func TestWebhook_MissingConfiguredToken(t *testing.T) {
	svc := NewService(newMemRepo(), &invalidations{}, "")
	_, err := svc.HandleWebhook(context.Background(), "", []byte(`{}`))
	assert.True(t, apperrors.IsConfiguration(err))
	assert.False(t, svc.VerifyToken(""))
}

func TestWebhook_InvalidPayload(t *testing.T) {
	svc, _, _ := setup()
	_, err := svc.HandleWebhook(context.Background(), token, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestWebhook_FailedDeliveryIsRetried(t *testing.T) {
	svc, repo, _ := setup()
	p := signup(t, svc)
	repo.failNext = errors.New("deadlock")

	_, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_9", EventPaymentConfirmed, p.Reference))
	require.Error(t, err)

	res, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_9", EventPaymentConfirmed, p.Reference))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, ActionProvisioned, res.Action)
}

func TestWebhook_UnfinishedDeliveryIsApplied(t *testing.T) {
	svc, repo, _ := setup()
	p := signup(t, svc)

	// stored by an earlier attempt that stopped before it was marked processed
	_, _, err := repo.CreateWebhookEventIfNotExists(context.Background(), &models.BillingWebhookEvent{
		Provider:        models.BillingProviderAsaas,
		ProviderEventID: "evt_7",
		EventType:       EventPaymentConfirmed,
		SignatureValid:  true,
	})
	require.NoError(t, err)

	res, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_7", EventPaymentConfirmed, p.Reference))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, ActionProvisioned, res.Action)

	dup, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_7", EventPaymentConfirmed, p.Reference))
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)
}

func TestWebhook_OverdueAndCancellation(t *testing.T) {
	svc, repo, inv := setup()
	p := signup(t, svc)
	res, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_1", EventPaymentConfirmed, p.Reference))
	require.NoError(t, err)
	tenantID := res.TenantID

	res, err = svc.HandleWebhook(context.Background(), token, paymentEvent("evt_2", EventPaymentOverdue, p.Reference))
	require.NoError(t, err)
	assert.Equal(t, ActionOverdue, res.Action)
	assert.Equal(t, models.SubscriptionStatusOverdue, repo.subs[tenantID].Status)
	assert.Equal(t, models.TenantStatusInactive, repo.tenants[tenantID].Status)

	reactivate := paymentEvent("evt_3", EventPaymentReceived, fmt.Sprintf("tenant:%d", tenantID))
	res, err = svc.HandleWebhook(context.Background(), token, reactivate)
	require.NoError(t, err)
	assert.Equal(t, ActionReactivated, res.Action)
	assert.Equal(t, models.TenantStatusActive, repo.tenants[tenantID].Status)
	assert.Equal(t, models.SubscriptionStatusActive, repo.subs[tenantID].Status)

	deleted := []byte(fmt.Sprintf(`{"id":"evt_4","event":"SUBSCRIPTION_DELETED","subscription":{"id":"sub_1","externalReference":"tenant:%d"}}`, tenantID))
	res, err = svc.HandleWebhook(context.Background(), token, deleted)
	require.NoError(t, err)
	assert.Equal(t, ActionCancelled, res.Action)
	assert.Equal(t, models.SubscriptionStatusCancelled, repo.subs[tenantID].Status)
	assert.Equal(t, models.TenantStatusInactive, repo.tenants[tenantID].Status)

	assert.Len(t, *inv, 4)
}

func TestWebhook_IgnoredEvents(t *testing.T) {
	svc, _, _ := setup()

	res, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_1", "PAYMENT_CREATED", "whatever"))
	require.NoError(t, err)
	assert.True(t, res.Ignored)

	res, err = svc.HandleWebhook(context.Background(), token, paymentEvent("evt_2", EventPaymentConfirmed, "signup_unknown"))
	require.NoError(t, err)
	assert.True(t, res.Ignored)

	res, err = svc.HandleWebhook(context.Background(), token, paymentEvent("evt_3", EventPaymentOverdue, "signup_unknown"))
	require.NoError(t, err)
	assert.True(t, res.Ignored)
}

func TestWebhook_ReactivatingUnknownTenant(t *testing.T) {
	svc, _, _ := setup()
	_, err := svc.HandleWebhook(context.Background(), token, paymentEvent("evt_1", EventPaymentConfirmed, "tenant:404"))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTenantIDFromReference(t *testing.T) {
	id, ok := TenantIDFromReference("tenant:12")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)

	for _, ref := range []string{"tenant:", "tenant:0", "tenant:abc", "signup_x", ""} {
		_, ok := TenantIDFromReference(ref)
		assert.False(t, ok, ref)
	}
}

func TestDeliveryIDFallsBackToPaymentID(t *testing.T) {
	ev, err := ParseAsaasEvent([]byte(`{"event":"payment_overdue","payment":{"id":"pay_7"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentOverdue, ev.Event)
	assert.Equal(t, "PAYMENT_OVERDUE:pay_7", ev.DeliveryID())

	_, err = ParseAsaasEvent([]byte(`{"payment":{}}`))
	assert.Error(t, err)
}
