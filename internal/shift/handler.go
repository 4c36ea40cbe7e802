package shift

import (
	"fmt"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register, vardiya uç noktalarını verilen gruba bağlar.
func (h *Handler) Register(r fiber.Router) {
	r.Post("/shifts", h.Start)
	r.Get("/shifts", h.List)
	r.Get("/shifts/active", h.Active)
	r.Get("/shifts/pending", auth.RequireAdmin(), h.Pending)
	r.Get("/shifts/:id", h.Get)
	r.Get("/shifts/:id/export", h.Export)
	r.Put("/shifts/:id", h.UpdateDetails)
	r.Put("/shifts/:id/readings/:readingId", h.UpdateReading)
	r.Post("/shifts/:id/nozzles", h.AddNozzle)
	r.Delete("/shifts/:id/nozzles/:nozzleId", h.RemoveNozzle)
	r.Post("/shifts/:id/complete", h.Complete)
	r.Post("/shifts/:id/verify", auth.RequireAdmin(), h.Verify)
	r.Post("/shifts/:id/resubmit", h.Resubmit)
	r.Delete("/shifts/:id", auth.RequireAdmin(), h.Delete)
}

// ParamID, yol parametresindeki pozitif id'yi okur.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperror.Newf(apperror.KindInvalidInput, "Geçersiz %s", name)
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return apperror.New(apperror.KindInvalidInput, "Geçersiz istek gövdesi")
	}
	return nil
}

// POST /api/shifts
func (h *Handler) Start(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	var body StartInput
	if err := parseBody(c, &body); err != nil {
		return err
	}

	sh, err := h.svc.Start(c.UserContext(), actor, body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sh)
}

// GET /api/shifts?status=&type=&user_id=&from=2025-01-01&to=2025-01-31&page=1&page_size=20
func (h *Handler) List(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}

	f := ListFilter{
		Status:   models.ShiftStatus(c.Query("status")),
		Type:     models.ShiftType(c.Query("type")),
		UserID:   uint(c.QueryInt("user_id", 0)),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", defaultPageSize),
	}
	if s := c.Query("from"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return apperror.New(apperror.KindInvalidInput, "from formatı YYYY-MM-DD olmalı")
		}
		f.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return apperror.New(apperror.KindInvalidInput, "to formatı YYYY-MM-DD olmalı")
		}
		// bitiş günü dahil
		t = t.AddDate(0, 0, 1)
		f.To = &t
	}

	page, err := h.svc.List(c.UserContext(), actor, f)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GET /api/shifts/active
func (h *Handler) Active(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Active(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

// GET /api/shifts/pending
func (h *Handler) Pending(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	items, err := h.svc.Pending(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// GET /api/shifts/:id
func (h *Handler) Get(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

// GET /api/shifts/:id/export
func (h *Handler) Export(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="vardiya-%d.xlsx"`, id))
	return WriteXLSX(c.Response().BodyWriter(), d)
}

// PUT /api/shifts/:id
func (h *Handler) UpdateDetails(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	var body DetailsInput
	if err := parseBody(c, &body); err != nil {
		return err
	}
	sh, err := h.svc.UpdateDetails(c.UserContext(), actor, id, body)
	if err != nil {
		return err
	}
	return c.JSON(sh)
}

// PUT /api/shifts/:id/readings/:readingId
func (h *Handler) UpdateReading(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	readingID, err := ParamID(c, "readingId")
	if err != nil {
		return err
	}
	var body UpdateReadingInput
	if err := parseBody(c, &body); err != nil {
		return err
	}
	r, err := h.svc.UpdateReading(c.UserContext(), actor, id, readingID, body)
	if err != nil {
		return err
	}
	return c.JSON(r)
}

type AddNozzleRequest struct {
	NozzleID uint `json:"nozzle_id"`
}

// POST /api/shifts/:id/nozzles
func (h *Handler) AddNozzle(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	var body AddNozzleRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	r, err := h.svc.AddNozzle(c.UserContext(), actor, id, body.NozzleID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// DELETE /api/shifts/:id/nozzles/:nozzleId
func (h *Handler) RemoveNozzle(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	nozzleID, err := ParamID(c, "nozzleId")
	if err != nil {
		return err
	}
	if err := h.svc.RemoveNozzle(c.UserContext(), actor, id, nozzleID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/shifts/:id/complete
func (h *Handler) Complete(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	var body CompleteInput
	if err := parseBody(c, &body); err != nil {
		return err
	}
	d, err := h.svc.Complete(c.UserContext(), actor, id, body)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

// POST /api/shifts/:id/verify
func (h *Handler) Verify(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	var body VerifyInput
	if err := parseBody(c, &body); err != nil {
		return err
	}
	sh, err := h.svc.Verify(c.UserContext(), actor, id, body)
	if err != nil {
		return err
	}
	return c.JSON(sh)
}

// POST /api/shifts/:id/resubmit
func (h *Handler) Resubmit(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	sh, err := h.svc.Resubmit(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(sh)
}

// DELETE /api/shifts/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	actor, err := auth.ActorFrom(c)
	if err != nil {
		return err
	}
	id, err := ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
