// Package nozzlelock, bir tabancanın aynı anda en fazla bir açık vardiyaya
// atanmasını Nozzle.is_available bayrağı üzerinden sağlar.
//
// Tüm fonksiyonlar çağıranın transaction'ı içinde çalışır. Sahiplenme tek bir
// koşullu UPDATE ile yapılır ("yalnızca şu an müsaitse al"); etkilenen satır
// yoksa yarışı başka bir vardiya kazanmıştır.
package nozzlelock

import (
	"errors"
	"fmt"
	"sort"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Claim, tabancayı istasyon kapsamında sahiplenir ve sahiplenme sonrası güncel
// halini döndürür (açılış okuması bu değerden alınır).
func Claim(tx *gorm.DB, stationID, nozzleID uint) (models.Nozzle, error) {
	var n models.Nozzle
	if err := tx.Where("id = ? AND station_id = ?", nozzleID, stationID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return n, &apperror.Error{Kind: apperror.KindNozzleNotFound, Message: "Tabanca bulunamadı", NozzleID: nozzleID}
		}
		return n, fmt.Errorf("tabanca okunamadı: %w", err)
	}
	if !n.IsActive {
		return n, &apperror.Error{Kind: apperror.KindNozzleInactive, Message: fmt.Sprintf("%s tabancası aktif değil", n.Code), NozzleID: n.ID}
	}

	res := tx.Model(&models.Nozzle{}).
		Where("id = ? AND station_id = ? AND is_active = ? AND is_available = ?", nozzleID, stationID, true, true).
		Update("is_available", false)
	if res.Error != nil {
		return n, fmt.Errorf("tabanca kilitlenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return n, &apperror.Error{Kind: apperror.KindNozzleUnavailable, Message: fmt.Sprintf("%s tabancası başka bir vardiyada kullanımda", n.Code), NozzleID: n.ID}
	}

	if err := tx.First(&n, nozzleID).Error; err != nil {
		return n, fmt.Errorf("tabanca okunamadı: %w", err)
	}
	return n, nil
}

// ClaimAll, tabancaları id sırasıyla sahiplenir. Sabit sıra, iki vardiyanın
// kesişen kümeleri ters sırada kilitlemesini önler. İlk hatada durur; çağıran
// transaction'ı geri almalıdır.
func ClaimAll(tx *gorm.DB, stationID uint, nozzleIDs []uint) ([]models.Nozzle, error) {
	ids := append([]uint(nil), nozzleIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	claimed := make([]models.Nozzle, 0, len(ids))
	for _, id := range ids {
		n, err := Claim(tx, stationID, id)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, n)
	}
	return claimed, nil
}

// Release, tabancaları yeniden müsait yapar.
func Release(tx *gorm.DB, stationID uint, nozzleIDs ...uint) error {
	if len(nozzleIDs) == 0 {
		return nil
	}
	err := tx.Model(&models.Nozzle{}).
		Where("id IN ? AND station_id = ?", nozzleIDs, stationID).
		Update("is_available", true).Error
	if err != nil {
		return fmt.Errorf("tabancalar serbest bırakılamadı: %w", err)
	}
	return nil
}

// Advance, vardiya kapanışında sayacı ilerletir ve tabancayı serbest bırakır.
func Advance(tx *gorm.DB, stationID, nozzleID uint, closing decimal.Decimal) error {
	err := tx.Model(&models.Nozzle{}).
		Where("id = ? AND station_id = ?", nozzleID, stationID).
		Updates(map[string]interface{}{
			"current_reading": closing,
			"is_available":    true,
		}).Error
	if err != nil {
		return fmt.Errorf("tabanca sayacı güncellenemedi: %w", err)
	}
	return nil
}

// AdvanceIfUnchanged, sayaç hâlâ eski kapanış değerindeyse yeni değere taşır.
// Tabanca bu arada başka bir vardiyada kullanıldıysa hiçbir şey yapmaz ve false döner.
func AdvanceIfUnchanged(tx *gorm.DB, stationID, nozzleID uint, oldClosing, newClosing decimal.Decimal) (bool, error) {
	res := tx.Model(&models.Nozzle{}).
		Where("id = ? AND station_id = ? AND current_reading = ? AND is_available = ?", nozzleID, stationID, oldClosing, true).
		Update("current_reading", newClosing)
	if res.Error != nil {
		return false, fmt.Errorf("tabanca sayacı güncellenemedi: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
