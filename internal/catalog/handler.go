package catalog

import (
	"istasyon-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	reader Reader
}

func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

// GET /api/nozzles?available=true
func (h *Handler) ListNozzles(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	nozzles, err := h.reader.Nozzles(c.UserContext(), actor.StationID, c.QueryBool("available", false))
	if err != nil {
		return err
	}
	return c.JSON(nozzles)
}

// GET /api/payment-methods
func (h *Handler) ListPaymentMethods(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	methods, err := h.reader.PaymentMethods(c.UserContext(), actor.StationID)
	if err != nil {
		return err
	}
	return c.JSON(methods)
}

// GET /api/denominations
func (h *Handler) ListDenominations(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	list, err := h.reader.Denominations(c.UserContext(), actor.StationID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}
