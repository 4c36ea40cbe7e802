package models

import "time"

type EditRequestStatus string

const (
	EditRequestPending  EditRequestStatus = "pending"
	EditRequestApproved EditRequestStatus = "approved"
)

// EditRequest - onaylanmış bir vardiyanın yeniden düzenlemeye açılması için talep.
// Reddetme kaydın silinmesiyle ifade edilir.
type EditRequest struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	StationID         uint              `gorm:"index;not null" json:"station_id"`
	ShiftID           uint              `gorm:"index;not null" json:"shift_id"`
	Shift             *Shift            `json:"shift,omitempty"`
	RequestedByUserID uint              `gorm:"not null" json:"requested_by_user_id"`
	RequestedBy       *User             `gorm:"foreignKey:RequestedByUserID" json:"requested_by,omitempty"`
	Reason            string            `gorm:"size:1000;not null" json:"reason"`
	Status            EditRequestStatus `gorm:"size:20;not null;index" json:"status"`
	ApprovedByUserID  *uint             `json:"approved_by_user_id"`
	ApprovedAt        *time.Time        `json:"approved_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
