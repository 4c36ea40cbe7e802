package shift

import (
	"errors"
	"fmt"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"

	"gorm.io/gorm"
)

// Load, vardiyayı çağıranın görebildiği kapsamda okur: her zaman istasyon
// kapsamında, yönetici olmayanlar için yalnızca kendi vardiyaları. Kapsam dışı
// bir vardiya yok sayılır ve ShiftNotFound döner.
func Load(tx *gorm.DB, actor auth.Actor, shiftID uint) (models.Shift, error) {
	var s models.Shift
	q := tx.Where("id = ? AND station_id = ?", shiftID, actor.StationID)
	if !actor.IsAdmin() {
		q = q.Where("user_id = ?", actor.UserID)
	}
	if err := q.First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s, &apperror.Error{Kind: apperror.KindShiftNotFound, Message: "Vardiya bulunamadı", ShiftID: shiftID}
		}
		return s, fmt.Errorf("vardiya okunamadı: %w", err)
	}
	return s, nil
}

// Authorize, vardiya üzerindeki değişiklik yetkisini denetler:
//   - verified: ShiftLocked (yalnızca düzenleme talebi onayıyla açılır)
//   - yönetici: diğer tüm durumlarda
//   - sahip: in_progress veya rejected iken
func Authorize(actor auth.Actor, s *models.Shift) error {
	if s.Status == models.ShiftStatusVerified {
		return &apperror.Error{
			Kind:    apperror.KindShiftLocked,
			Message: "Onaylanmış vardiya düzenlenemez; önce düzenleme talebi onaylanmalı",
			ShiftID: s.ID,
			Status:  string(s.Status),
		}
	}
	if actor.IsAdmin() {
		return nil
	}
	if s.UserID == actor.UserID &&
		(s.Status == models.ShiftStatusInProgress || s.Status == models.ShiftStatusRejected) {
		return nil
	}
	return &apperror.Error{Kind: apperror.KindForbidden, Message: "Bu vardiyayı düzenleme yetkiniz yok", ShiftID: s.ID, Status: string(s.Status)}
}

// RequireInProgress, yalnızca açık vardiyada yapılabilen işlemler için.
func RequireInProgress(s *models.Shift) error {
	if s.Status != models.ShiftStatusInProgress {
		return &apperror.Error{Kind: apperror.KindNotInProgress, Message: "Vardiya açık değil", ShiftID: s.ID, Status: string(s.Status)}
	}
	return nil
}

// Lock, vardiyayı okur, check ile denetler ve okunan durum hâlâ geçerliyse
// satıra koşullu bir yazma yapar. Postgres'te bu satır kilidi transaction
// sonuna kadar tutulur; böylece aynı vardiyadaki eşzamanlı bir durum geçişi ile
// bu transaction'daki yazmalar sıralanır. Durum araya girip değiştiyse yeni
// durum check'ten geçemiyorsa onun hatası, geçiyorsa StatusChanged döner.
func Lock(tx *gorm.DB, actor auth.Actor, shiftID uint, check func(auth.Actor, *models.Shift) error) (models.Shift, error) {
	s, err := Load(tx, actor, shiftID)
	if err != nil {
		return s, err
	}
	if err := check(actor, &s); err != nil {
		return s, err
	}

	res := tx.Model(&models.Shift{}).
		Where("id = ? AND status = ?", s.ID, s.Status).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return s, fmt.Errorf("vardiya kilitlenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return s, stale(tx, actor, s, check)
	}
	return s, nil
}

// stale, koşullu yazma başarısız olduktan sonra vardiyayı yeniden okuyup hatayı belirler.
func stale(tx *gorm.DB, actor auth.Actor, prev models.Shift, check func(auth.Actor, *models.Shift) error) error {
	cur, err := Load(tx, actor, prev.ID)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(actor, &cur); err != nil {
			return err
		}
	}
	return &apperror.Error{
		Kind:    apperror.KindStatusChanged,
		Message: "Vardiya durumu işlem sırasında değişti, tekrar deneyin",
		ShiftID: cur.ID,
		Status:  string(cur.Status),
	}
}

// canRun, yalnızca açık vardiyada sahibin veya yöneticinin çalıştırdığı işlemler
// için. Kapanmış bir vardiyada NotInProgress döner.
func canRun(actor auth.Actor, s *models.Shift) error {
	if s.Status == models.ShiftStatusVerified {
		return Authorize(actor, s)
	}
	if err := RequireInProgress(s); err != nil {
		return err
	}
	return Authorize(actor, s)
}
