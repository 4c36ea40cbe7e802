// Package admin, istasyon kurulumunu ve personel hesaplarını yönetir.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/audit"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	cost int
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, cost: bcrypt.DefaultCost}
}

type UserInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type BootstrapInput struct {
	StationName string
	Address     string
	Admin       UserInput
}

// Bootstrap, yeni bir istasyonu ilk yöneticisiyle birlikte oluşturur.
// Kimlik doğrulanmış bir çağıran olmadığından audit kaydı yazılmaz.
func (s *Service) Bootstrap(ctx context.Context, in BootstrapInput) (*models.Station, *models.User, error) {
	in.StationName = strings.TrimSpace(in.StationName)
	if in.StationName == "" {
		return nil, nil, apperror.New(apperror.KindInvalidInput, "İstasyon adı zorunlu")
	}
	in.Admin.Role = models.RoleAdmin

	station := models.Station{Name: in.StationName, Address: strings.TrimSpace(in.Address)}
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&station).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Newf(apperror.KindInvalidInput, "%q adında bir istasyon zaten var", station.Name)
			}
			return fmt.Errorf("istasyon oluşturulamadı: %w", err)
		}
		u, err := s.createUser(tx, station.ID, in.Admin)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &station, user, nil
}

// CreateUser, çağıranın istasyonuna yeni bir personel hesabı açar.
func (s *Service) CreateUser(ctx context.Context, actor auth.Actor, in UserInput) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.KindForbidden, "Personel hesabını yalnızca yönetici açabilir")
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.createUser(tx, actor.StationID, in)
		if err != nil {
			return err
		}
		user = u
		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityUser,
			EntityID:    u.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Personel oluşturuldu: %s (%s)", u.Name, u.Role),
			After:       u,
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers, istasyonun personelini isim sırasıyla döndürür.
func (s *Service) ListUsers(ctx context.Context, actor auth.Actor) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.KindForbidden, "Personel listesini yalnızca yönetici görebilir")
	}
	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("station_id = ?", actor.StationID).
		Order("name ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("personel listelenemedi: %w", err)
	}
	return users, nil
}

func (s *Service) createUser(tx *gorm.DB, stationID uint, in UserInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "İsim, email ve şifre zorunlu")
	}
	if len(in.Password) < 8 {
		return nil, apperror.New(apperror.KindInvalidInput, "Şifre en az 8 karakter olmalı")
	}
	if !in.Role.Valid() {
		return nil, apperror.Newf(apperror.KindInvalidInput, "Geçersiz rol: %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("şifre hashlenemedi: %w", err)
	}

	user := models.User{
		StationID:    stationID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := tx.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(apperror.KindInvalidInput, "Bu email zaten kayıtlı")
		}
		return nil, fmt.Errorf("kullanıcı oluşturulamadı: %w", err)
	}
	return &user, nil
}
