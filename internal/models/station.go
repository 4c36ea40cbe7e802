package models

import "time"

// Station, çok kiracılı yapının sınırıdır; tüm kayıtlar bir istasyona aittir.
type Station struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:100;not null;unique" json:"name"`
	Address   string `gorm:"size:255" json:"address"`
	Phone     string `gorm:"size:50" json:"phone"` // Opsiyonel telefon
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Users []User `json:"-"`
}
