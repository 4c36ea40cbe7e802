package models

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleManager   UserRole = "manager"
	RoleAttendant UserRole = "attendant"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAttendant:
		return true
	}
	return false
}

// IsAdministrator, admin ve manager rollerini yönetici sayar.
func (r UserRole) IsAdministrator() bool {
	return r == RoleAdmin || r == RoleManager
}

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	StationID    uint     `gorm:"index;not null" json:"station_id"`
	Station      *Station `json:"-"`
	Name         string   `gorm:"size:100;not null" json:"name"`
	Email        string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	Role         UserRole `gorm:"size:20;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
