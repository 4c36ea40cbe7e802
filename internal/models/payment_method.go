package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod - nakit, kredi kartı, filo kartı vb.
type PaymentMethod struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StationID uint      `gorm:"index;not null" json:"station_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	IsCash    bool      `gorm:"not null" json:"is_cash"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Denomination - banknot/madeni para kupürü
type Denomination struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	StationID uint            `gorm:"index;not null" json:"station_id"`
	Label     string          `gorm:"size:50;not null" json:"label"` // ör: "200 TL"
	Value     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
