package auth

import (
	"strings"

	"istasyon-backend/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxClaimsKey = "claims"
	// requestid middleware'in varsayılan ContextKey değeri
	CtxRequestIDKey = "requestid"
)

func JWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperror.New(apperror.KindUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperror.New(apperror.KindUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		claims, err := ParseToken(secret, parts[1])
		if err != nil {
			return apperror.New(apperror.KindUnauthorized, "Geçersiz veya süresi dolmuş token")
		}
		if claims.StationID == 0 {
			return apperror.New(apperror.KindUnauthorized, "Token istasyon bilgisi içermiyor")
		}

		c.Locals(CtxClaimsKey, claims)
		return c.Next()
	}
}

// RequireAdmin, admin ve manager rollerine izin verir.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return apperror.New(apperror.KindForbidden, "Bu işlem için yetkiniz yok")
		}
		return c.Next()
	}
}
