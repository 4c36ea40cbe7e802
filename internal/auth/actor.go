package auth

import (
	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Actor, her çekirdek işleme açıkça geçirilen çağıran bağlamıdır.
type Actor struct {
	UserID    uint
	StationID uint
	Role      models.UserRole
	Name      string
	RequestID string
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdministrator()
}

// ActorFrom, JWTMiddleware'in Locals'a yazdığı bilgiden Actor üretir.
func ActorFrom(c *fiber.Ctx) (Actor, error) {
	claims, ok := c.Locals(CtxClaimsKey).(*JWTCustomClaims)
	if !ok || claims == nil {
		return Actor{}, apperror.New(apperror.KindUnauthorized, "Kullanıcı bilgisi alınamadı")
	}
	a := Actor{
		UserID:    claims.UserID,
		StationID: claims.StationID,
		Role:      claims.Role,
		Name:      claims.Name,
	}
	if rid, ok := c.Locals(CtxRequestIDKey).(string); ok {
		a.RequestID = rid
	}
	return a, nil
}
