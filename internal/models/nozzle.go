package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelType, litre fiyatını taşıyan yakıt türü (benzin, motorin...).
type FuelType struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	StationID uint            `gorm:"index;not null" json:"station_id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Nozzle, bir pompadaki fiziksel tabancadır. IsAvailable aynı anda en fazla
// bir açık vardiyaya atanabilmesi için kilit olarak kullanılır.
type Nozzle struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	StationID      uint            `gorm:"index;not null" json:"station_id"`
	Code           string          `gorm:"size:50;not null" json:"code"`          // ör: "P1-A"
	DispenserName  string          `gorm:"size:100" json:"dispenser_name"`        // pompa adı
	FuelTypeID     uint            `gorm:"index;not null" json:"fuel_type_id"`
	FuelType       FuelType        `json:"fuel_type"`
	CurrentReading decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"current_reading"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
	IsAvailable    bool            `gorm:"not null" json:"is_available"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
