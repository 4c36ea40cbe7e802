// Package shift, vardiya yaşam döngüsünü yönetir: açılış, tabanca atama,
// sayaç okumaları, kapanış, doğrulama/ret, yeniden gönderim ve silme.
//
// Her işlem tek bir transaction içinde çalışır ve açık bir auth.Actor alır.
// Durum geçişleri "WHERE id = ? AND status = ?" koşullu UPDATE'leriyle yapılır;
// etkilenen satır yoksa vardiya yeniden okunur ve kesin hata türü döndürülür.
package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/audit"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/nozzlelock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type StartInput struct {
	// UserID boşsa vardiya çağıranın adına açılır; yönetici başka bir
	// çalışanın adına açabilir.
	UserID    uint             `json:"user_id"`
	Type      models.ShiftType `json:"type"`
	NozzleIDs []uint           `json:"nozzle_ids"`
	StartTime *time.Time       `json:"start_time"`
	Notes     string           `json:"notes"`
}

// Start, vardiyayı açar, tabancaları sahiplenir ve her tabanca için açılış
// okuması = tabancanın güncel sayacı olan bir okuma satırı oluşturur.
func (s *Service) Start(ctx context.Context, actor auth.Actor, in StartInput) (*models.Shift, error) {
	if !in.Type.Valid() {
		return nil, apperror.Newf(apperror.KindInvalidInput, "Geçersiz vardiya tipi: %q", in.Type)
	}
	if len(in.NozzleIDs) == 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "En az bir tabanca seçilmeli")
	}
	seen := make(map[uint]struct{}, len(in.NozzleIDs))
	for _, id := range in.NozzleIDs {
		if _, dup := seen[id]; dup {
			return nil, &apperror.Error{Kind: apperror.KindInvalidInput, Message: "Aynı tabanca iki kez seçildi", NozzleID: id}
		}
		seen[id] = struct{}{}
	}

	ownerID := actor.UserID
	if in.UserID != 0 && in.UserID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, apperror.New(apperror.KindForbidden, "Başka bir kullanıcı adına vardiya açamazsınız")
		}
		ownerID = in.UserID
	}

	start := s.now()
	if in.StartTime != nil {
		if in.StartTime.After(start) {
			return nil, apperror.New(apperror.KindInvalidInput, "Başlangıç zamanı ileri bir tarih olamaz")
		}
		start = *in.StartTime
	}

	var shift models.Shift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ownerID != actor.UserID {
			var n int64
			if err := tx.Model(&models.User{}).
				Where("id = ? AND station_id = ?", ownerID, actor.StationID).
				Count(&n).Error; err != nil {
				return fmt.Errorf("kullanıcı okunamadı: %w", err)
			}
			if n == 0 {
				return apperror.Newf(apperror.KindInvalidInput, "Kullanıcı bulunamadı: %d", ownerID)
			}
		}

		var activeIDs []uint
		if err := tx.Model(&models.Shift{}).
			Where("station_id = ? AND user_id = ? AND status = ?", actor.StationID, ownerID, models.ShiftStatusInProgress).
			Pluck("id", &activeIDs).Error; err != nil {
			return fmt.Errorf("açık vardiya kontrol edilemedi: %w", err)
		}
		if len(activeIDs) > 0 {
			return alreadyActive(activeIDs[0])
		}

		shift = models.Shift{
			StationID:             actor.StationID,
			UserID:                ownerID,
			Type:                  in.Type,
			Status:                models.ShiftStatusInProgress,
			StartTime:             start,
			TotalPaymentCollected: decimal.Zero,
			Notes:                 in.Notes,
		}
		if err := tx.Create(&shift).Error; err != nil {
			// eşzamanlı ikinci açılış kısmi benzersiz indekse takılır
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyActive(0)
			}
			return fmt.Errorf("vardiya oluşturulamadı: %w", err)
		}

		nozzles, err := nozzlelock.ClaimAll(tx, actor.StationID, in.NozzleIDs)
		if err != nil {
			return err
		}

		readings := make([]models.NozzleReading, 0, len(nozzles))
		for _, n := range nozzles {
			readings = append(readings, models.NozzleReading{
				ShiftID:        shift.ID,
				NozzleID:       n.ID,
				OpeningReading: n.CurrentReading,
				TestQty:        decimal.Zero,
				FuelDispensed:  decimal.Zero,
			})
		}
		if err := tx.Create(&readings).Error; err != nil {
			return fmt.Errorf("okuma satırları oluşturulamadı: %w", err)
		}
		shift.Readings = readings

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityShift,
			EntityID:    shift.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Vardiya başlatıldı (%s, %d tabanca)", shift.Type, len(readings)),
			After:       shift,
		})
	})
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func alreadyActive(shiftID uint) error {
	return &apperror.Error{
		Kind:    apperror.KindAlreadyActive,
		Message: "Bu kullanıcının zaten açık bir vardiyası var",
		ShiftID: shiftID,
		Status:  string(models.ShiftStatusInProgress),
	}
}

func nonNegative(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return apperror.Newf(apperror.KindInvalidInput, "%s negatif olamaz", field)
	}
	return nil
}
