package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/metrics"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/moderation"
)

// Classifier scores comments. *moderation.Classifier satisfies it.
type Classifier interface {
	Classify(comment *string, rating int) moderation.Verdict
}

// Service runs the feedback lifecycle: creation with auto-moderation, edits
// and manual moderator overrides.
type Service struct {
	repo       Repository
	classifier Classifier
	now        func() time.Time
}

// NewService creates a feedback service from an injected repository.
func NewService(repo Repository, classifier Classifier) *Service {
	if classifier == nil {
		classifier = moderation.Default()
	}
	return &Service{repo: repo, classifier: classifier, now: time.Now}
}

// NewServiceFromDB creates a feedback service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), nil)
}

// CreateInput is the payload of a new feedback.
type CreateInput struct {
	AppointmentID uint
	Rating        int
	Comment       *string
}

// UpdateInput carries optional edits. Nil fields are left unchanged.
type UpdateInput struct {
	Rating  *int
	Comment *string
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.Validation("rating", "A avaliação deve estar entre 1 e 5")
	}
	return nil
}

// Create stores feedback for a completed appointment of the tenant.
func (s *Service) Create(ctx context.Context, tenantID uint, in CreateInput) (*models.Feedback, error) {
	if in.AppointmentID == 0 {
		return nil, apperrors.Validation("appointment_id", "Agendamento é obrigatório")
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointment(ctx, tenantID, in.AppointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("appointment", in.AppointmentID)
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status != models.AppointmentStatusDone {
		return nil, apperrors.Conflict("appointment_not_completed",
			"Só é possível avaliar agendamentos realizados",
			map[string]any{"status": appt.Status})
	}

	fb := &models.Feedback{
		TenantID:      tenantID,
		AppointmentID: in.AppointmentID,
		Rating:        in.Rating,
		Comment:       normalizeComment(in.Comment),
	}
	s.applyVerdict(fb)

	created, err := s.repo.CreateIfAbsent(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	if !created {
		return nil, apperrors.Conflict("feedback_exists", "Este agendamento já foi avaliado", nil)
	}
	return fb, nil
}

// Update merges the given fields and re-runs moderation when anything changed.
func (s *Service) Update(ctx context.Context, tenantID, id uint, in UpdateInput) (*models.Feedback, error) {
	fb, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("feedback", id)
		}
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	if in.Rating == nil && in.Comment == nil {
		return fb, nil
	}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		fb.Rating = *in.Rating
	}
	if in.Comment != nil {
		fb.Comment = normalizeComment(in.Comment)
	}
	s.applyVerdict(fb)

	if err := s.repo.SaveModeration(ctx, fb); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}
	return fb, nil
}

// Approve publishes a feedback. Rejected feedback must be reverted first.
func (s *Service) Approve(ctx context.Context, id uint, moderator string) (*models.Feedback, error) {
	return s.override(ctx, id, models.ModerationStatusApproved, nil, moderator)
}

// Reject hides a feedback with a mandatory reason. Approved feedback must be reverted first.
func (s *Service) Reject(ctx context.Context, id uint, reason, moderator string) (*models.Feedback, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("reason", "Motivo da rejeição é obrigatório")
	}
	return s.override(ctx, id, models.ModerationStatusRejected, &reason, moderator)
}

// Revert puts a feedback back in the review queue and clears moderation data.
func (s *Service) Revert(ctx context.Context, id uint) (*models.Feedback, error) {
	fb, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	fb.ModerationStatus = models.ModerationStatusPending
	fb.ModerationReason = nil
	fb.ModeratedAt = nil
	fb.ModeratedBy = nil
	fb.AutoModerated = false
	if err := s.repo.SaveModeration(ctx, fb); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}
	return fb, nil
}

// List returns approved feedback, or everything when includeAll is set.
func (s *Service) List(ctx context.Context, tenantID uint, includeAll bool) ([]models.Feedback, error) {
	return s.repo.ListByTenant(ctx, tenantID, includeAll)
}

// Pending returns the moderation queue newest first. tenantID 0 spans all tenants.
func (s *Service) Pending(ctx context.Context, tenantID uint) ([]models.Feedback, error) {
	return s.repo.ListPending(ctx, tenantID)
}

func (s *Service) override(ctx context.Context, id uint, target string, reason *string, moderator string) (*models.Feedback, error) {
	fb, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(fb.ModerationStatus, target); err != nil {
		return nil, err
	}

	now := s.now()
	by := strings.TrimSpace(moderator)
	fb.ModerationStatus = target
	fb.ModerationReason = reason
	fb.ModeratedAt = &now
	fb.ModeratedBy = nil
	if by != "" {
		fb.ModeratedBy = &by
	}
	fb.AutoModerated = false
	if err := s.repo.SaveModeration(ctx, fb); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}
	return fb, nil
}

func (s *Service) load(ctx context.Context, id uint) (*models.Feedback, error) {
	fb, err := s.repo.GetByIDAnyTenant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("feedback", id)
		}
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	return fb, nil
}

// checkTransition allows pending <-> approved, pending <-> rejected and
// re-applying the current state. approved <-> rejected goes through pending.
func checkTransition(from, to string) error {
	if from == to || from == models.ModerationStatusPending || to == models.ModerationStatusPending {
		return nil
	}
	return apperrors.Conflict("invalid_moderation_transition",
		"Reverta o feedback para pendente antes de alterar a decisão",
		map[string]any{"from": from, "to": to})
}

func (s *Service) applyVerdict(fb *models.Feedback) {
	v := s.classifier.Classify(fb.Comment, fb.Rating)
	metrics.ModerationVerdicts.WithLabelValues(v.Severity.String(), metrics.Bool(v.Approved)).Inc()

	now := s.now()
	fb.ModerationStatus = models.ModerationStatusPending
	if v.Approved {
		fb.ModerationStatus = models.ModerationStatusApproved
	}
	fb.ModerationReason = v.Reason
	fb.ModeratedAt = &now
	fb.ModeratedBy = nil
	fb.AutoModerated = true
}

func normalizeComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
