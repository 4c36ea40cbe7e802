package shift

import (
	"context"
	"fmt"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/audit"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/nozzlelock"
	"istasyon-backend/internal/reconcile"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClosingInput, kapanışta bir tabanca için girilen değerler.
type ClosingInput struct {
	NozzleID       uint             `json:"nozzle_id"`
	ClosingReading decimal.Decimal  `json:"closing_reading"`
	TestQty        *decimal.Decimal `json:"test_qty"`
}

type CompleteInput struct {
	Notes    *string        `json:"notes"`
	EndTime  *time.Time     `json:"end_time"`
	Readings []ClosingInput `json:"readings"`
}

// Complete, vardiyayı in_progress → pending_verification taşır. Her okumanın
// kapanışı ya önceden girilmiş ya da bu çağrıda verilmiş olmalıdır. Tabanca
// sayaçları kapanış değerine ilerletilir ve tabancalar serbest bırakılır.
func (s *Service) Complete(ctx context.Context, actor auth.Actor, shiftID uint, in CompleteInput) (*Detail, error) {
	for _, c := range in.Readings {
		if c.ClosingReading.IsNegative() {
			return nil, &apperror.Error{Kind: apperror.KindInvalidInput, Message: "closing_reading negatif olamaz", NozzleID: c.NozzleID}
		}
		if err := nonNegative("test_qty", c.TestQty); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Lock(tx, actor, shiftID, canRun)
		if err != nil {
			return err
		}

		end := s.now()
		if in.EndTime != nil {
			end = *in.EndTime
		}
		if end.Before(sh.StartTime) {
			return &apperror.Error{Kind: apperror.KindInvalidInput, Message: "Bitiş zamanı başlangıçtan önce olamaz", ShiftID: sh.ID}
		}

		var readings []models.NozzleReading
		if err := tx.Preload("Nozzle").Where("shift_id = ?", sh.ID).Order("id ASC").Find(&readings).Error; err != nil {
			return fmt.Errorf("okumalar okunamadı: %w", err)
		}
		byNozzle := make(map[uint]*models.NozzleReading, len(readings))
		for i := range readings {
			byNozzle[readings[i].NozzleID] = &readings[i]
		}
		for _, c := range in.Readings {
			r, ok := byNozzle[c.NozzleID]
			if !ok {
				return &apperror.Error{Kind: apperror.KindNozzleReadingNotFound, Message: "Tabanca bu vardiyada değil", ShiftID: sh.ID, NozzleID: c.NozzleID}
			}
			r.ClosingReading = decimal.NewNullDecimal(c.ClosingReading)
			if c.TestQty != nil {
				r.TestQty = *c.TestQty
			}
		}

		for i := range readings {
			r := &readings[i]
			if !r.ClosingReading.Valid {
				code := ""
				if r.Nozzle != nil {
					code = r.Nozzle.Code
				}
				return &apperror.Error{
					Kind:      apperror.KindMissingClosingReading,
					Message:   fmt.Sprintf("%s tabancası için kapanış okuması eksik", code),
					ShiftID:   sh.ID,
					NozzleID:  r.NozzleID,
					ReadingID: r.ID,
				}
			}
			r.FuelDispensed = reconcile.FuelDispensed(r.OpeningReading, r.ClosingReading.Decimal, r.TestQty)
			if err := saveReading(tx, r); err != nil {
				return err
			}
			if err := nozzlelock.Advance(tx, sh.StationID, r.NozzleID, r.ClosingReading.Decimal); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"status":   models.ShiftStatusPendingVerification,
			"end_time": end,
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if err := transition(tx, actor, sh, updates, canRun); err != nil {
			return err
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityShift,
			EntityID:    sh.ID,
			Action:      models.AuditActionUpdate,
			Description: "Vardiya kapatıldı, doğrulama bekliyor",
			Before:      sh,
			After:       updates,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, shiftID)
}

type VerifyInput struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes"`
}

// Verify, yöneticinin doğrulama kararını uygular: onay → verified, ret → rejected.
// Her iki durumda da karar veren ve zaman damgalanır.
func (s *Service) Verify(ctx context.Context, actor auth.Actor, shiftID uint, in VerifyInput) (*models.Shift, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.KindForbidden, "Vardiyayı yalnızca yönetici doğrulayabilir")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Load(tx, actor, shiftID)
		if err != nil {
			return err
		}
		if err := requirePending(actor, &sh); err != nil {
			return err
		}

		now := s.now()
		updates := map[string]interface{}{
			"verified_at":         now,
			"verified_by_user_id": actor.UserID,
		}
		desc := "Vardiya onaylandı"
		if in.Approved {
			updates["status"] = models.ShiftStatusVerified
			updates["rejection_notes"] = ""
		} else {
			updates["status"] = models.ShiftStatusRejected
			updates["rejection_notes"] = in.Notes
			desc = "Vardiya reddedildi"
		}
		if err := transition(tx, actor, sh, updates, requirePending); err != nil {
			return err
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityShift,
			EntityID:    sh.ID,
			Action:      models.AuditActionUpdate,
			Description: desc,
			Before:      sh,
			After:       updates,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, actor, shiftID)
}

// Resubmit, reddedilmiş vardiyayı tekrar doğrulamaya gönderir; ret notu ve
// doğrulama damgaları temizlenir.
func (s *Service) Resubmit(ctx context.Context, actor auth.Actor, shiftID uint) (*models.Shift, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Load(tx, actor, shiftID)
		if err != nil {
			return err
		}
		if err := requireRejected(actor, &sh); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":              models.ShiftStatusPendingVerification,
			"rejection_notes":     "",
			"verified_at":         nil,
			"verified_by_user_id": nil,
		}
		if err := transition(tx, actor, sh, updates, requireRejected); err != nil {
			return err
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityShift,
			EntityID:    sh.ID,
			Action:      models.AuditActionUpdate,
			Description: "Vardiya yeniden doğrulamaya gönderildi",
			Before:      sh,
			After:       updates,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, actor, shiftID)
}

// Delete, açık veya doğrulama bekleyen vardiyayı tüm alt kayıtlarıyla siler.
// Açık vardiyanın tabancaları serbest bırakılır.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, shiftID uint) error {
	if !actor.IsAdmin() {
		return apperror.New(apperror.KindForbidden, "Vardiyayı yalnızca yönetici silebilir")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Lock(tx, actor, shiftID, deletable)
		if err != nil {
			return err
		}

		var nozzleIDs []uint
		if err := tx.Model(&models.NozzleReading{}).Where("shift_id = ?", sh.ID).Pluck("nozzle_id", &nozzleIDs).Error; err != nil {
			return fmt.Errorf("okumalar okunamadı: %w", err)
		}
		if sh.Status == models.ShiftStatusInProgress {
			if err := nozzlelock.Release(tx, sh.StationID, nozzleIDs...); err != nil {
				return err
			}
		}

		var paymentIDs []uint
		if err := tx.Model(&models.Payment{}).Where("shift_id = ?", sh.ID).Pluck("id", &paymentIDs).Error; err != nil {
			return fmt.Errorf("ödemeler okunamadı: %w", err)
		}
		if len(paymentIDs) > 0 {
			if err := tx.Where("payment_id IN ?", paymentIDs).Delete(&models.PaymentDenomination{}).Error; err != nil {
				return fmt.Errorf("kupür satırları silinemedi: %w", err)
			}
			if err := tx.Where("shift_id = ?", sh.ID).Delete(&models.Payment{}).Error; err != nil {
				return fmt.Errorf("ödemeler silinemedi: %w", err)
			}
		}
		if err := tx.Where("shift_id = ?", sh.ID).Delete(&models.NozzleReading{}).Error; err != nil {
			return fmt.Errorf("okumalar silinemedi: %w", err)
		}
		if err := tx.Where("shift_id = ?", sh.ID).Delete(&models.EditRequest{}).Error; err != nil {
			return fmt.Errorf("düzenleme talepleri silinemedi: %w", err)
		}

		res := tx.Where("id = ? AND status = ?", sh.ID, sh.Status).Delete(&models.Shift{})
		if res.Error != nil {
			return fmt.Errorf("vardiya silinemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return stale(tx, actor, sh, deletable)
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityShift,
			EntityID:    sh.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Vardiya silindi (%s)", sh.Status),
			Before:      sh,
		})
	})
}

type DetailsInput struct {
	Notes *string           `json:"notes"`
	Type  *models.ShiftType `json:"type"`
}

// UpdateDetails, vardiyanın not ve tip bilgisini düzenler.
func (s *Service) UpdateDetails(ctx context.Context, actor auth.Actor, shiftID uint, in DetailsInput) (*models.Shift, error) {
	if in.Notes == nil && in.Type == nil {
		return nil, apperror.New(apperror.KindInvalidInput, "Güncellenecek alan yok")
	}
	if in.Type != nil && !in.Type.Valid() {
		return nil, apperror.Newf(apperror.KindInvalidInput, "Geçersiz vardiya tipi: %q", *in.Type)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := Lock(tx, actor, shiftID, Authorize)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if in.Type != nil {
			updates["type"] = *in.Type
		}
		if err := tx.Model(&models.Shift{}).Where("id = ?", sh.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("vardiya güncellenemedi: %w", err)
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityShift,
			EntityID:    sh.ID,
			Action:      models.AuditActionUpdate,
			Description: "Vardiya bilgileri güncellendi",
			Before:      sh,
			After:       updates,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, actor, shiftID)
}

// transition, okunan durumdan yeni duruma koşullu geçiş yapar.
func transition(tx *gorm.DB, actor auth.Actor, sh models.Shift, updates map[string]interface{}, check func(auth.Actor, *models.Shift) error) error {
	res := tx.Model(&models.Shift{}).
		Where("id = ? AND status = ?", sh.ID, sh.Status).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("vardiya durumu güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return stale(tx, actor, sh, check)
	}
	return nil
}

func requirePending(_ auth.Actor, s *models.Shift) error {
	if s.Status != models.ShiftStatusPendingVerification {
		return &apperror.Error{Kind: apperror.KindNotPendingVerification, Message: "Vardiya doğrulama beklemiyor", ShiftID: s.ID, Status: string(s.Status)}
	}
	return nil
}

func requireRejected(_ auth.Actor, s *models.Shift) error {
	if s.Status != models.ShiftStatusRejected {
		return &apperror.Error{Kind: apperror.KindNotRejected, Message: "Vardiya reddedilmiş değil", ShiftID: s.ID, Status: string(s.Status)}
	}
	return nil
}

func deletable(_ auth.Actor, s *models.Shift) error {
	switch s.Status {
	case models.ShiftStatusInProgress, models.ShiftStatusPendingVerification:
		return nil
	}
	return &apperror.Error{
		Kind:    apperror.KindCannotDeleteVerifiedOrRejected,
		Message: "Onaylanmış veya reddedilmiş vardiya silinemez",
		ShiftID: s.ID,
		Status:  string(s.Status),
	}
}

func (s *Service) reload(ctx context.Context, actor auth.Actor, shiftID uint) (*models.Shift, error) {
	sh, err := Load(s.db.WithContext(ctx), actor, shiftID)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}
