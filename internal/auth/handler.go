package auth

import (
	"strings"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler, kimlik doğrulama uç noktalarını toplar.
type Handler struct {
	db       *gorm.DB
	secret   string
	tokenTTL time.Duration
}

func NewHandler(db *gorm.DB, secret string, tokenTTL time.Duration) *Handler {
	return &Handler{db: db, secret: secret, tokenTTL: tokenTTL}
}

// POST /api/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var body LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return apperror.New(apperror.KindInvalidInput, "Geçersiz istek gövdesi")
	}

	body.Email = strings.TrimSpace(strings.ToLower(body.Email))

	var user models.User
	if err := h.db.Where("email = ?", body.Email).First(&user).Error; err != nil {
		return apperror.New(apperror.KindUnauthorized, "Email veya şifre hatalı")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		return apperror.New(apperror.KindUnauthorized, "Email veya şifre hatalı")
	}

	token, err := GenerateToken(h.secret, h.tokenTTL, &user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"role":       user.Role,
			"station_id": user.StationID,
		},
	})
}

// GET /api/auth/me
func (h *Handler) Me(c *fiber.Ctx) error {
	actor, err := ActorFrom(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.Preload("Station").
		Where("id = ? AND station_id = ?", actor.UserID, actor.StationID).
		First(&user).Error; err != nil {
		// Fallback: token bilgisini döndür
		return c.JSON(fiber.Map{
			"user_id":    actor.UserID,
			"role":       actor.Role,
			"station_id": actor.StationID,
		})
	}

	response := fiber.Map{
		"user_id":    user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"station_id": user.StationID,
		"is_admin":   user.Role.IsAdministrator(),
	}
	if user.Station != nil {
		response["station"] = fiber.Map{
			"id":      user.Station.ID,
			"name":    user.Station.Name,
			"address": user.Station.Address,
			"phone":   user.Station.Phone,
		}
	}
	return c.JSON(response)
}
