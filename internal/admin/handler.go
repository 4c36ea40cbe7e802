package admin

import (
	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r fiber.Router) {
	g := r.Group("/admin", auth.RequireAdmin())
	g.Post("/users", h.CreateUser)
	g.Get("/users", h.ListUsers)
}

// POST /api/admin/users
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	var body UserInput
	if err := c.BodyParser(&body); err != nil {
		return apperror.New(apperror.KindInvalidInput, "Geçersiz veri gönderildi")
	}
	user, err := h.svc.CreateUser(c.UserContext(), actor, body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GET /api/admin/users
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	users, err := h.svc.ListUsers(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(users)
}
