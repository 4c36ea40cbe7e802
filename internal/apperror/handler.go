package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// FiberErrorHandler, fiber.Config.ErrorHandler olarak kullanılır.
// *Error türleri yapısal gövdeyle, *fiber.Error kendi koduyla, diğer her şey 500 olarak döner.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		body := fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Kind,
		}
		if d := appErr.Details(); len(d) > 0 {
			body["details"] = d
		}
		return c.Status(HTTPStatus(appErr.Kind)).JSON(body)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error": fe.Message,
		})
	}

	log.Errorw("Beklenmeyen hata", "path", c.Path(), "method", c.Method(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Beklenmeyen sunucu hatası",
	})
}
