package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShiftType string

const (
	ShiftTypeMorning ShiftType = "morning"
	ShiftTypeEvening ShiftType = "evening"
	ShiftTypeNight   ShiftType = "night"
)

func (t ShiftType) Valid() bool {
	switch t {
	case ShiftTypeMorning, ShiftTypeEvening, ShiftTypeNight:
		return true
	}
	return false
}

type ShiftStatus string

const (
	ShiftStatusInProgress          ShiftStatus = "in_progress"
	ShiftStatusPendingVerification ShiftStatus = "pending_verification"
	ShiftStatusVerified            ShiftStatus = "verified"
	ShiftStatusRejected            ShiftStatus = "rejected"
)

func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftStatusInProgress, ShiftStatusPendingVerification, ShiftStatusVerified, ShiftStatusRejected:
		return true
	}
	return false
}

// Shift - bir pompacının bir istasyondaki görev süresi.
// TotalPaymentCollected, silinmemiş Payment tutarlarının toplamıdır ve yalnızca
// ödeme defteri işlemleriyle aynı transaction içinde güncellenir.
type Shift struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	StationID             uint            `gorm:"index;not null" json:"station_id"`
	UserID                uint            `gorm:"index;not null" json:"user_id"`
	User                  *User           `json:"user,omitempty"`
	Type                  ShiftType       `gorm:"size:20;not null" json:"type"`
	Status                ShiftStatus     `gorm:"size:30;not null;index" json:"status"`
	StartTime             time.Time       `gorm:"index;not null" json:"start_time"`
	EndTime               *time.Time      `json:"end_time"`
	TotalPaymentCollected decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_payment_collected"`
	Notes                 string          `gorm:"size:1000" json:"notes"`
	RejectionNotes        string          `gorm:"size:1000" json:"rejection_notes"`
	VerifiedAt            *time.Time      `json:"verified_at"`
	VerifiedByUserID      *uint           `json:"verified_by_user_id"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	Readings []NozzleReading `gorm:"foreignKey:ShiftID" json:"readings,omitempty"`
	Payments []Payment       `gorm:"foreignKey:ShiftID" json:"payments,omitempty"`
}

// NozzleReading - vardiyaya atanmış her tabanca için bir satır.
type NozzleReading struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	ShiftID        uint                `gorm:"not null;uniqueIndex:idx_readings_shift_nozzle" json:"shift_id"`
	NozzleID       uint                `gorm:"not null;uniqueIndex:idx_readings_shift_nozzle;index" json:"nozzle_id"`
	Nozzle         *Nozzle             `json:"nozzle,omitempty"`
	OpeningReading decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"opening_reading"`
	ClosingReading decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"closing_reading"`
	TestQty        decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"test_qty"`
	FuelDispensed  decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"fuel_dispensed"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
