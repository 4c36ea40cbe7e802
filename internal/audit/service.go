package audit

import (
	"encoding/json"
	"fmt"

	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"

	"gorm.io/gorm"
)

type LogOptions struct {
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Entity türleri
const (
	EntityShift         = "shift"
	EntityNozzleReading = "nozzle_reading"
	EntityPayment       = "payment"
	EntityEditRequest   = "edit_request"
	EntityUser          = "user"
)

// Write, audit kaydını verilen transaction içinde yazar; böylece geri alınan bir
// işlem log bırakmaz.
func Write(tx *gorm.DB, actor auth.Actor, opts LogOptions) error {
	entry := models.AuditLog{
		StationID:   actor.StationID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		RequestID:   actor.RequestID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  marshal(opts.Before),
		AfterData:   marshal(opts.After),
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}
	return nil
}

// Boş veri "null" JSON olarak saklanır.
func marshal(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// Filter, ListLogs için opsiyonel filtreler.
type Filter struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
}

// List, istasyonun audit kayıtlarını yeniden eskiye döndürür.
func List(db *gorm.DB, stationID uint, f Filter) ([]models.AuditLog, error) {
	q := db.Model(&models.AuditLog{}).Where("station_id = ?", stationID)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit logları listelenemedi: %w", err)
	}
	return logs, nil
}
