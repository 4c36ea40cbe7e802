package ledger

import (
	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/auth"
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
	r.Get("/shifts/:id/payments", h.List)
	r.Post("/shifts/:id/payments", h.Add)
	r.Put("/shifts/:id/payments/:paymentId", h.Update)
	r.Delete("/shifts/:id/payments/:paymentId", h.Delete)
}

// GET /api/shifts/:id/payments
func (h *Handler) List(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	shiftID, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	payments, err := h.svc.List(c.UserContext(), actor, shiftID)
	if err != nil {
		return err
	}
	return c.JSON(payments)
}

// POST /api/shifts/:id/payments
func (h *Handler) Add(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	shiftID, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	var body PaymentInput
	if err := c.BodyParser(&body); err != nil {
		return apperror.New(apperror.KindInvalidInput, "Geçersiz istek gövdesi")
	}
	p, err := h.svc.Add(c.UserContext(), actor, shiftID, body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /api/shifts/:id/payments/:paymentId
func (h *Handler) Update(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	shiftID, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	paymentID, err := shift.ParamID(c, "paymentId")
	if err != nil {
		return err
	}
	var body UpdatePaymentInput
	if err := c.BodyParser(&body); err != nil {
		return apperror.New(apperror.KindInvalidInput, "Geçersiz istek gövdesi")
	}
	p, err := h.svc.Update(c.UserContext(), actor, shiftID, paymentID, body)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// DELETE /api/shifts/:id/payments/:paymentId
func (h *Handler) Delete(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	shiftID, err := shift.ParamID(c, "id")
	if err != nil {
		return err
	}
	paymentID, err := shift.ParamID(c, "paymentId")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.UserContext(), actor, shiftID, paymentID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
