// Package server, fiber uygulamasını kurar ve tüm uç noktaları bağlar.
package server

import (
	"strings"
	"time"

	"istasyon-backend/internal/admin"
	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/audit"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/catalog"
	"istasyon-backend/internal/editrequest"
	"istasyon-backend/internal/ledger"
	"istasyon-backend/internal/shift"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Options struct {
	DB          *gorm.DB
	Catalog     catalog.Reader // nil ise doğrudan veritabanı okunur
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins string
}

func New(opts Options) *fiber.App {
	reader := opts.Catalog
	if reader == nil {
		reader = catalog.NewStore(opts.DB)
	}

	app := fiber.New(fiber.Config{
		AppName:      "istasyon-backend",
		ErrorHandler: apperror.FiberErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	// CORS origins virgülle ayrılmış string
	origins := strings.Split(opts.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public auth
	authHandler := auth.NewHandler(opts.DB, opts.JWTSecret, opts.TokenTTL)
	api.Post("/auth/login", authHandler.Login)

	// Protected
	protected := api.Group("", auth.JWTMiddleware(opts.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)

	// Referans verisi
	catalogHandler := catalog.NewHandler(reader)
	protected.Get("/nozzles", catalogHandler.ListNozzles)
	protected.Get("/payment-methods", catalogHandler.ListPaymentMethods)
	protected.Get("/denominations", catalogHandler.ListDenominations)

	// Vardiyalar, ödemeler, düzenleme talepleri
	shift.NewHandler(shift.NewService(opts.DB)).Register(protected)
	ledger.NewHandler(ledger.NewService(opts.DB, reader)).Register(protected)
	editrequest.NewHandler(editrequest.NewService(opts.DB)).Register(protected)

	// Personel
	admin.NewHandler(admin.NewService(opts.DB)).Register(protected)

	// Audit
	protected.Get("/audit-logs", auth.RequireAdmin(), audit.ListHandler(opts.DB))

	return app
}
