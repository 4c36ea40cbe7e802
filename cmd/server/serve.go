package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"istasyon-backend/internal/catalog"
	"istasyon-backend/internal/config"
	"istasyon-backend/internal/database"
	"istasyon-backend/internal/server"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTP sunucusunu başlatır (şemayı da günceller)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openAndMigrate(cfg)
	if err != nil {
		return err
	}

	reader := catalog.NewStore(db)
	var cached catalog.Reader = reader
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			// önbellek olmadan da çalışılır; Cached her hatada veritabanına düşer
			log.Warnf("Redis'e ulaşılamadı (%s): %v", cfg.RedisAddr, err)
		}
		cached = catalog.NewCached(reader, client, cfg.CatalogCacheTTL)
		log.Infof("Katalog önbelleği açık: %s (ttl %s)", cfg.RedisAddr, cfg.CatalogCacheTTL)
	}

	app := server.New(server.Options{
		DB:          db,
		Catalog:     cached,
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    cfg.TokenTTL,
		CORSOrigins: cfg.CORSOrigins,
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("Kapatılıyor...")
		if err := app.Shutdown(); err != nil {
			log.Errorf("Sunucu kapatılamadı: %v", err)
		}
	}()

	log.Infof("Server çalışıyor port: %s", cfg.HTTPPort)
	return app.Listen(":" + cfg.HTTPPort)
}

func openAndMigrate(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migration başarısız: %w", err)
	}
	return db, nil
}
