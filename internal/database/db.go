package database

import (
	"fmt"

	"istasyon-backend/internal/models"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open, Postgres bağlantısını açar. TranslateError açık olduğu için benzersizlik
// ihlalleri gorm.ErrDuplicatedKey olarak döner.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}
	return db, nil
}

// Config, tüm sürücüler için ortak gorm ayarları.
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

// partialIndexes, AutoMigrate'in etiketlerle ifade edemediği koşullu benzersiz indeksler.
// Postgres ve SQLite ikisi de "CREATE UNIQUE INDEX ... WHERE" destekler.
var partialIndexes = []struct {
	name string
	sql  string
}{
	{
		// (istasyon, kullanıcı) başına en fazla bir açık vardiya
		name: "idx_shifts_one_in_progress",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_in_progress
			ON shifts(station_id, user_id) WHERE status = 'in_progress'`,
	},
	{
		// vardiya başına en fazla bir bekleyen düzenleme talebi
		name: "idx_edit_requests_one_pending",
		sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_edit_requests_one_pending
			ON edit_requests(shift_id) WHERE status = 'pending'`,
	},
}

// Migrate, şemayı oluşturur/günceller. Tekrar çağrılması güvenlidir.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Station{},
		&models.User{},
		&models.FuelType{},
		&models.Nozzle{},
		&models.PaymentMethod{},
		&models.Denomination{},
		&models.Shift{},
		&models.NozzleReading{},
		&models.Payment{},
		&models.PaymentDenomination{},
		&models.EditRequest{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}

	for _, idx := range partialIndexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("%s indeksi oluşturulamadı: %w", idx.name, err)
		}
	}

	log.Info("Migration tamamlandı.")
	return nil
}
