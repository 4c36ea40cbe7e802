package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment - vardiyaya kaydedilen tahsilat.
type Payment struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	ShiftID         uint                `gorm:"index;not null" json:"shift_id"`
	PaymentMethodID uint                `gorm:"index;not null" json:"payment_method_id"`
	PaymentMethod   *PaymentMethod      `json:"payment_method,omitempty"`
	Amount          decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"amount"`
	Quantity        decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"quantity"`     // opsiyonel litre
	CoinsAmount     decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"coins_amount"` // bozuk para
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	Denominations []PaymentDenomination `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE" json:"denominations"`
}

// PaymentDenomination - ödemenin kupür dökümü; Count = 0 olan satırlar saklanmaz.
type PaymentDenomination struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	PaymentID      uint          `gorm:"index;not null" json:"payment_id"`
	DenominationID uint          `gorm:"index;not null" json:"denomination_id"`
	Denomination   *Denomination `json:"denomination,omitempty"`
	Count          int           `gorm:"not null" json:"count"`
}
