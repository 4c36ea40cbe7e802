package shift

import (
	"context"
	"errors"
	"fmt"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/audit"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/nozzlelock"
	"istasyon-backend/internal/reconcile"

	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UpdateReadingInput struct {
	OpeningReading *decimal.Decimal `json:"opening_reading"` // yalnızca yönetici, kapanıştan sonra
	ClosingReading *decimal.Decimal `json:"closing_reading"`
	TestQty        *decimal.Decimal `json:"test_qty"`
}

// UpdateReading, okumanın kapanış/test miktarını (ve yönetici düzeltmesinde
// açılışı) günceller, satılan yakıtı yeniden hesaplar.
//
// Kapanmış bir vardiyada kapanış değeri değişirse tabancanın sayacı da taşınır,
// ama yalnızca sayaç hâlâ eski kapanış değerindeyse; aksi halde tabanca sonraki
// bir vardiyada kullanılmıştır ve sayaca dokunulmaz.
func (s *Service) UpdateReading(ctx context.Context, actor auth.Actor, shiftID, readingID uint, in UpdateReadingInput) (*models.NozzleReading, error) {
	if in.OpeningReading == nil && in.ClosingReading == nil && in.TestQty == nil {
		return nil, apperror.New(apperror.KindInvalidInput, "Güncellenecek alan yok")
	}
	for field, v := range map[string]*decimal.Decimal{
		"opening_reading": in.OpeningReading,
		"closing_reading": in.ClosingReading,
		"test_qty":        in.TestQty,
	} {
		if err := nonNegative(field, v); err != nil {
			return nil, err
		}
	}
	if in.OpeningReading != nil && !actor.IsAdmin() {
		return nil, apperror.New(apperror.KindForbidden, "Açılış okumasını yalnızca yönetici düzeltebilir")
	}

	var r models.NozzleReading
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Lock(tx, actor, shiftID, Authorize)
		if err != nil {
			return err
		}
		if in.OpeningReading != nil && sh.Status == models.ShiftStatusInProgress {
			return &apperror.Error{Kind: apperror.KindInvalidInput, Message: "Açık vardiyada açılış okuması değiştirilemez", ShiftID: sh.ID, Status: string(sh.Status)}
		}

		r, err = loadReading(tx, sh.ID, readingID)
		if err != nil {
			return err
		}
		before := r

		if in.OpeningReading != nil {
			r.OpeningReading = *in.OpeningReading
		}
		if in.ClosingReading != nil {
			r.ClosingReading = decimal.NewNullDecimal(*in.ClosingReading)
		}
		if in.TestQty != nil {
			r.TestQty = *in.TestQty
		}
		r.FuelDispensed = reconcile.FuelDispensedOrZero(r.OpeningReading, r.ClosingReading, r.TestQty)

		if err := saveReading(tx, &r); err != nil {
			return err
		}

		if sh.Status != models.ShiftStatusInProgress && before.ClosingReading.Valid &&
			!before.ClosingReading.Decimal.Equal(r.ClosingReading.Decimal) {
			moved, err := nozzlelock.AdvanceIfUnchanged(tx, sh.StationID, r.NozzleID, before.ClosingReading.Decimal, r.ClosingReading.Decimal)
			if err != nil {
				return err
			}
			if !moved {
				log.Infow("tabanca sayacı sonraki vardiyada değişmiş, taşınmadı",
					"shift_id", sh.ID, "nozzle_id", r.NozzleID, "request_id", actor.RequestID)
			}
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityNozzleReading,
			EntityID:    r.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Vardiya #%d okuması güncellendi", sh.ID),
			Before:      before,
			After:       r,
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AddNozzle, açık vardiyaya yeni bir tabanca ekler.
func (s *Service) AddNozzle(ctx context.Context, actor auth.Actor, shiftID, nozzleID uint) (*models.NozzleReading, error) {
	if nozzleID == 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "nozzle_id zorunlu")
	}

	var r models.NozzleReading
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Lock(tx, actor, shiftID, canRun)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.NozzleReading{}).
			Where("shift_id = ? AND nozzle_id = ?", sh.ID, nozzleID).
			Count(&n).Error; err != nil {
			return fmt.Errorf("okuma kontrol edilemedi: %w", err)
		}
		if n > 0 {
			return &apperror.Error{Kind: apperror.KindNozzleUnavailable, Message: "Tabanca zaten bu vardiyada", ShiftID: sh.ID, NozzleID: nozzleID}
		}

		nozzle, err := nozzlelock.Claim(tx, sh.StationID, nozzleID)
		if err != nil {
			return err
		}

		r = models.NozzleReading{
			ShiftID:        sh.ID,
			NozzleID:       nozzle.ID,
			OpeningReading: nozzle.CurrentReading,
			TestQty:        decimal.Zero,
			FuelDispensed:  decimal.Zero,
		}
		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("okuma oluşturulamadı: %w", err)
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityNozzleReading,
			EntityID:    r.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Vardiya #%d: %s tabancası eklendi", sh.ID, nozzle.Code),
			After:       r,
		})
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RemoveNozzle, satış kaydedilmemiş bir tabancayı açık vardiyadan çıkarır ve serbest bırakır.
func (s *Service) RemoveNozzle(ctx context.Context, actor auth.Actor, shiftID, nozzleID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Lock(tx, actor, shiftID, canRun)
		if err != nil {
			return err
		}

		var readings []models.NozzleReading
		if err := tx.Where("shift_id = ?", sh.ID).Find(&readings).Error; err != nil {
			return fmt.Errorf("okumalar okunamadı: %w", err)
		}

		var target *models.NozzleReading
		for i := range readings {
			if readings[i].NozzleID == nozzleID {
				target = &readings[i]
				break
			}
		}
		if target == nil {
			return &apperror.Error{Kind: apperror.KindNozzleReadingNotFound, Message: "Tabanca bu vardiyada değil", ShiftID: sh.ID, NozzleID: nozzleID}
		}
		if len(readings) == 1 {
			return &apperror.Error{Kind: apperror.KindLastNozzle, Message: "Vardiyada en az bir tabanca kalmalı", ShiftID: sh.ID, NozzleID: nozzleID}
		}
		if target.ClosingReading.Valid || !target.TestQty.IsZero() {
			return &apperror.Error{Kind: apperror.KindSalesAlreadyRecorded, Message: "Bu tabanca için okuma girilmiş, çıkarılamaz", ShiftID: sh.ID, NozzleID: nozzleID, ReadingID: target.ID}
		}

		if err := tx.Delete(&models.NozzleReading{}, target.ID).Error; err != nil {
			return fmt.Errorf("okuma silinemedi: %w", err)
		}
		if err := nozzlelock.Release(tx, sh.StationID, nozzleID); err != nil {
			return err
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityNozzleReading,
			EntityID:    target.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Vardiya #%d: tabanca #%d çıkarıldı", sh.ID, nozzleID),
			Before:      target,
		})
	})
}

func loadReading(tx *gorm.DB, shiftID, readingID uint) (models.NozzleReading, error) {
	var r models.NozzleReading
	if err := tx.Where("id = ? AND shift_id = ?", readingID, shiftID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r, &apperror.Error{Kind: apperror.KindNozzleReadingNotFound, Message: "Okuma bulunamadı", ShiftID: shiftID, ReadingID: readingID}
		}
		return r, fmt.Errorf("okuma okunamadı: %w", err)
	}
	return r, nil
}

func saveReading(tx *gorm.DB, r *models.NozzleReading) error {
	err := tx.Model(&models.NozzleReading{}).
		Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"opening_reading": r.OpeningReading,
			"closing_reading": r.ClosingReading,
			"test_qty":        r.TestQty,
			"fuel_dispensed":  r.FuelDispensed,
		}).Error
	if err != nil {
		return fmt.Errorf("okuma güncellenemedi: %w", err)
	}
	return nil
}
