package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/feedback"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/tenantcontext"
)

// FeedbackService is implemented by *feedback.Service.
type FeedbackService interface {
	Create(ctx context.Context, tenantID uint, in feedback.CreateInput) (*models.Feedback, error)
	Update(ctx context.Context, tenantID, id uint, in feedback.UpdateInput) (*models.Feedback, error)
	Approve(ctx context.Context, id uint, moderator string) (*models.Feedback, error)
	Reject(ctx context.Context, id uint, reason, moderator string) (*models.Feedback, error)
	Revert(ctx context.Context, id uint) (*models.Feedback, error)
	List(ctx context.Context, tenantID uint, includeAll bool) ([]models.Feedback, error)
	Pending(ctx context.Context, tenantID uint) ([]models.Feedback, error)
}

// FeedbackController serves tenant feedback and the admin moderation queue.
type FeedbackController struct {
	feedback FeedbackService
}

func NewFeedbackController(svc FeedbackService) *FeedbackController {
	return &FeedbackController{feedback: svc}
}

type createFeedbackRequest struct {
	AppointmentID uint    `json:"appointment_id" validate:"required"`
	Rating        int     `json:"rating" validate:"gte=1,lte=5"`
	Comment       *string `json:"comment" validate:"omitempty,max=2000"`
}

type updateFeedbackRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type rejectFeedbackRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// HandleList returns approved feedback; ?include_all=true includes every state.
func (fc *FeedbackController) HandleList(c *fiber.Ctx) error {
	list, err := fc.feedback.List(c.UserContext(), tenantcontext.GetTenantID(c), c.QueryBool("include_all", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"feedback": list})
}

func (fc *FeedbackController) HandleCreate(c *fiber.Ctx) error {
	var req createFeedbackRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	fb, err := fc.feedback.Create(c.UserContext(), tenantcontext.GetTenantID(c), feedback.CreateInput{
		AppointmentID: req.AppointmentID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}

func (fc *FeedbackController) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateFeedbackRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	fb, err := fc.feedback.Update(c.UserContext(), tenantcontext.GetTenantID(c), id, feedback.UpdateInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fb)
}

// HandlePending lists the moderation queue. ?tenant_id= narrows it to one tenant.
func (fc *FeedbackController) HandlePending(c *fiber.Ctx) error {
	list, err := fc.feedback.Pending(c.UserContext(), uint(queryInt(c, "tenant_id", 0)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"feedback": list})
}

func (fc *FeedbackController) HandleApprove(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	fb, err := fc.feedback.Approve(c.UserContext(), id, tenantcontext.GetAdminSubject(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fb)
}

func (fc *FeedbackController) HandleReject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req rejectFeedbackRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	fb, err := fc.feedback.Reject(c.UserContext(), id, req.Reason, tenantcontext.GetAdminSubject(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fb)
}

func (fc *FeedbackController) HandleRevert(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	fb, err := fc.feedback.Revert(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fb)
}
