package editrequest

import (
	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/shift"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r fiber.Router) {
	r.Post("/shifts/:id/edit-requests", auth.RequireAdmin(), h.Request)
	r.Get("/shifts/:id/edit-requests", h.History)
	r.Get("/edit-requests", h.Queue)
	r.Post("/edit-requests/:id/approve", h.Approve)
	r.Delete("/edit-requests/:id", auth.RequireAdmin(), h.Cancel)
}

type CreateEditRequest struct {
	Reason string `json:"reason"`
}

// POST /api/shifts/:id/edit-requests
func (h *Handler) Request(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	shiftID, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	var body CreateEditRequest
	if err := c.BodyParser(&body); err != nil {
		return apperror.New(apperror.KindInvalidInput, "Geçersiz istek gövdesi")
	}
	req, err := h.svc.Request(c.UserContext(), actor, shiftID, body.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// GET /api/shifts/:id/edit-requests
func (h *Handler) History(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	shiftID, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.svc.History(c.UserContext(), actor, shiftID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GET /api/edit-requests?status=pending
func (h *Handler) Queue(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	list, err := h.svc.Queue(c.UserContext(), actor, models.EditRequestStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// POST /api/edit-requests/:id/approve
func (h *Handler) Approve(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	req, err := h.svc.Approve(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// DELETE /api/edit-requests/:id
func (h *Handler) Cancel(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Cancel(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
