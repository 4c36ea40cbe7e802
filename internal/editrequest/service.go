// Package editrequest, onaylanmış bir vardiyanın yeniden düzenlemeye açılmasını
// iki taraflı bir talep/onay protokolüyle yönetir: yönetici talep eder, talep
// edenden başka biri (vardiya sahibi veya başka bir yönetici) onaylar. Onay,
// vardiyayı verified → pending_verification taşır.
package editrequest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/audit"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/shift"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Request, onaylanmış vardiya için bekleyen bir düzenleme talebi açar.
func (s *Service) Request(ctx context.Context, actor auth.Actor, shiftID uint, reason string) (*models.EditRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.KindForbidden, "Düzenleme talebini yalnızca yönetici açabilir")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "Talep gerekçesi zorunlu")
	}

	var req models.EditRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := shift.Load(tx, actor, shiftID)
		if err != nil {
			return err
		}
		if sh.Status != models.ShiftStatusVerified {
			return &apperror.Error{Kind: apperror.KindNotVerified, Message: "Yalnızca onaylanmış vardiya için talep açılabilir", ShiftID: sh.ID, Status: string(sh.Status)}
		}

		var pending []uint
		if err := tx.Model(&models.EditRequest{}).
			Where("shift_id = ? AND status = ?", sh.ID, models.EditRequestPending).
			Pluck("id", &pending).Error; err != nil {
			return fmt.Errorf("bekleyen talepler okunamadı: %w", err)
		}
		if len(pending) > 0 {
			return alreadyPending(sh.ID, pending[0])
		}

		req = models.EditRequest{
			StationID:         actor.StationID,
			ShiftID:           sh.ID,
			RequestedByUserID: actor.UserID,
			Reason:            reason,
			Status:            models.EditRequestPending,
		}
		if err := tx.Create(&req).Error; err != nil {
			// eşzamanlı ikinci talep kısmi benzersiz indekse takılır
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyPending(sh.ID, 0)
			}
			return fmt.Errorf("düzenleme talebi kaydedilemedi: %w", err)
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityEditRequest,
			EntityID:    req.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Vardiya #%d için düzenleme talebi açıldı", sh.ID),
			After:       req,
		})
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve, bekleyen talebi onaylar ve vardiyayı tekrar doğrulama kuyruğuna alır.
// Talebi açan kişi kendi talebini onaylayamaz; vardiyanın sahibiyse onaylayabilir.
func (s *Service) Approve(ctx context.Context, actor auth.Actor, requestID uint) (*models.EditRequest, error) {
	var req models.EditRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			sh  models.Shift
			err error
		)
		if req, sh, err = loadVisible(tx, actor, requestID); err != nil {
			return err
		}
		if err := requirePending(&req); err != nil {
			return err
		}
		if req.RequestedByUserID == actor.UserID && sh.UserID != actor.UserID {
			return &apperror.Error{Kind: apperror.KindForbidden, Message: "Kendi açtığınız talebi onaylayamazsınız", RequestID: req.ID, ShiftID: req.ShiftID}
		}

		now := s.now()
		res := tx.Model(&models.EditRequest{}).
			Where("id = ? AND status = ?", req.ID, models.EditRequestPending).
			Updates(map[string]interface{}{
				"status":              models.EditRequestApproved,
				"approved_by_user_id": actor.UserID,
				"approved_at":         now,
			})
		if res.Error != nil {
			return fmt.Errorf("talep güncellenemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return s.staleRequest(tx, actor, req.ID)
		}

		res = tx.Model(&models.Shift{}).
			Where("id = ? AND station_id = ? AND status = ?", req.ShiftID, actor.StationID, models.ShiftStatusVerified).
			Updates(map[string]interface{}{
				"status":              models.ShiftStatusPendingVerification,
				"verified_at":         nil,
				"verified_by_user_id": nil,
			})
		if res.Error != nil {
			return fmt.Errorf("vardiya durumu güncellenemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var cur models.Shift
			if err := tx.Select("id", "status").First(&cur, req.ShiftID).Error; err != nil {
				return fmt.Errorf("vardiya okunamadı: %w", err)
			}
			return &apperror.Error{Kind: apperror.KindNotVerified, Message: "Vardiya artık onaylı değil", ShiftID: cur.ID, RequestID: req.ID, Status: string(cur.Status)}
		}

		before := req
		req.Status = models.EditRequestApproved
		req.ApprovedByUserID = &actor.UserID
		req.ApprovedAt = &now

		if err := audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityEditRequest,
			EntityID:    req.ID,
			Action:      models.AuditActionUpdate,
			Description: "Düzenleme talebi onaylandı",
			Before:      before,
			After:       req,
		}); err != nil {
			return err
		}
		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityShift,
			EntityID:    req.ShiftID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Düzenleme talebi #%d onaylandı, vardiya yeniden doğrulamaya açıldı", req.ID),
			After:       map[string]interface{}{"status": models.ShiftStatusPendingVerification},
		})
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Cancel, bekleyen talebi siler; vardiyaya etkisi yoktur.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, requestID uint) error {
	if !actor.IsAdmin() {
		return apperror.New(apperror.KindForbidden, "Talebi yalnızca yönetici iptal edebilir")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, _, err := loadVisible(tx, actor, requestID)
		if err != nil {
			return err
		}
		if err := requirePending(&req); err != nil {
			return err
		}

		res := tx.Where("id = ? AND status = ?", req.ID, models.EditRequestPending).Delete(&models.EditRequest{})
		if res.Error != nil {
			return fmt.Errorf("talep silinemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return s.staleRequest(tx, actor, req.ID)
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityEditRequest,
			EntityID:    req.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Vardiya #%d düzenleme talebi iptal edildi", req.ShiftID),
			Before:      req,
		})
	})
}

// Queue, istasyonun taleplerini yeniden eskiye listeler. Yönetici olmayanlar
// yalnızca kendi vardiyalarına açılmış talepleri görür.
func (s *Service) Queue(ctx context.Context, actor auth.Actor, status models.EditRequestStatus) ([]models.EditRequest, error) {
	if status != "" && status != models.EditRequestPending && status != models.EditRequestApproved {
		return nil, apperror.Newf(apperror.KindInvalidInput, "Geçersiz talep durumu: %q", status)
	}

	q := s.db.WithContext(ctx).
		Preload("Shift").
		Preload("RequestedBy").
		Where("edit_requests.station_id = ?", actor.StationID)
	if status != "" {
		q = q.Where("edit_requests.status = ?", status)
	}
	if !actor.IsAdmin() {
		own := s.db.WithContext(ctx).Model(&models.Shift{}).Select("id").
			Where("station_id = ? AND user_id = ?", actor.StationID, actor.UserID)
		q = q.Where("edit_requests.shift_id IN (?)", own)
	}

	var list []models.EditRequest
	if err := q.Order("edit_requests.created_at DESC, edit_requests.id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("düzenleme talepleri listelenemedi: %w", err)
	}
	return list, nil
}

// History, bir vardiyanın tüm taleplerini eskiden yeniye döndürür.
func (s *Service) History(ctx context.Context, actor auth.Actor, shiftID uint) ([]models.EditRequest, error) {
	db := s.db.WithContext(ctx)
	sh, err := shift.Load(db, actor, shiftID)
	if err != nil {
		return nil, err
	}

	var list []models.EditRequest
	if err := db.Preload("RequestedBy").
		Where("shift_id = ?", sh.ID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("düzenleme talepleri listelenemedi: %w", err)
	}
	return list, nil
}

// loadVisible, talebi istasyon kapsamında okur. Yönetici olmayan biri için
// başkasının vardiyasına ait talep yok sayılır.
func loadVisible(tx *gorm.DB, actor auth.Actor, requestID uint) (models.EditRequest, models.Shift, error) {
	var req models.EditRequest
	err := tx.Where("id = ? AND station_id = ?", requestID, actor.StationID).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return req, models.Shift{}, notFound(requestID)
		}
		return req, models.Shift{}, fmt.Errorf("talep okunamadı: %w", err)
	}
	sh, err := shift.Load(tx, actor, req.ShiftID)
	if err != nil {
		if apperror.Is(err, apperror.KindShiftNotFound) {
			return req, sh, notFound(requestID)
		}
		return req, sh, err
	}
	return req, sh, nil
}

func (s *Service) staleRequest(tx *gorm.DB, actor auth.Actor, requestID uint) error {
	req, _, err := loadVisible(tx, actor, requestID)
	if err != nil {
		return err
	}
	if err := requirePending(&req); err != nil {
		return err
	}
	return &apperror.Error{Kind: apperror.KindStatusChanged, Message: "Talep işlem sırasında değişti, tekrar deneyin", RequestID: req.ID, ShiftID: req.ShiftID}
}

func requirePending(req *models.EditRequest) error {
	if req.Status != models.EditRequestPending {
		return &apperror.Error{Kind: apperror.KindRequestNotPending, Message: "Talep beklemede değil", RequestID: req.ID, ShiftID: req.ShiftID, Status: string(req.Status)}
	}
	return nil
}

func alreadyPending(shiftID, requestID uint) error {
	return &apperror.Error{Kind: apperror.KindRequestAlreadyPending, Message: "Bu vardiya için zaten bekleyen bir talep var", ShiftID: shiftID, RequestID: requestID}
}

func notFound(requestID uint) error {
	return &apperror.Error{Kind: apperror.KindRequestNotFound, Message: "Düzenleme talebi bulunamadı", RequestID: requestID}
}
