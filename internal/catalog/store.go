// Package catalog, vardiya çekirdeğinin tükettiği istasyon referans verisine
// (tabancalar, ödeme yöntemleri, kupürler) salt okunur erişim sağlar.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"

	"gorm.io/gorm"
)

// Reader, istasyon kapsamlı referans verisi okuyucusu.
type Reader interface {
	Nozzles(ctx context.Context, stationID uint, onlyAvailable bool) ([]models.Nozzle, error)
	PaymentMethods(ctx context.Context, stationID uint) ([]models.PaymentMethod, error)
	PaymentMethod(ctx context.Context, stationID, id uint) (models.PaymentMethod, error)
	Denominations(ctx context.Context, stationID uint) ([]models.Denomination, error)
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Nozzles, fiyat bilgisiyle birlikte istasyonun aktif tabancalarını döndürür.
func (s *Store) Nozzles(ctx context.Context, stationID uint, onlyAvailable bool) ([]models.Nozzle, error) {
	q := s.db.WithContext(ctx).Preload("FuelType").
		Where("station_id = ? AND is_active = ?", stationID, true)
	if onlyAvailable {
		q = q.Where("is_available = ?", true)
	}

	var nozzles []models.Nozzle
	if err := q.Order("code ASC").Find(&nozzles).Error; err != nil {
		return nil, fmt.Errorf("tabancalar listelenemedi: %w", err)
	}
	return nozzles, nil
}

func (s *Store) PaymentMethods(ctx context.Context, stationID uint) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := s.db.WithContext(ctx).
		Where("station_id = ? AND is_active = ?", stationID, true).
		Order("id ASC").
		Find(&methods).Error
	if err != nil {
		return nil, fmt.Errorf("ödeme yöntemleri listelenemedi: %w", err)
	}
	return methods, nil
}

// PaymentMethod, pasif ya da başka istasyona ait yöntemleri InvalidInput olarak reddeder.
func (s *Store) PaymentMethod(ctx context.Context, stationID, id uint) (models.PaymentMethod, error) {
	var m models.PaymentMethod
	err := s.db.WithContext(ctx).
		Where("id = ? AND station_id = ? AND is_active = ?", id, stationID, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m, apperror.Newf(apperror.KindInvalidInput, "Ödeme yöntemi bulunamadı: %d", id)
		}
		return m, fmt.Errorf("ödeme yöntemi okunamadı: %w", err)
	}
	return m, nil
}

// Denominations, kupürleri büyükten küçüğe döndürür.
func (s *Store) Denominations(ctx context.Context, stationID uint) ([]models.Denomination, error) {
	var list []models.Denomination
	err := s.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("value DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("kupürler listelenemedi: %w", err)
	}
	return list, nil
}
