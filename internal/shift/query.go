package shift

import (
	"context"
	"fmt"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/reconcile"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReadingView, okumayı o anki yakıt fiyatı ve beklenen tutarla birlikte taşır.
type ReadingView struct {
	models.NozzleReading
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// Detail, vardiya detay/özet görünümü.
type Detail struct {
	Shift    models.Shift      `json:"shift"`
	Readings []ReadingView     `json:"readings"`
	Payments []models.Payment  `json:"payments"`
	Summary  reconcile.Summary `json:"summary"`
}

// Get, vardiyayı okumaları, ödemeleri ve mutabakat özetiyle döndürür.
// Fiyatlar okuma anında yakıt türünden alınır.
func (s *Service) Get(ctx context.Context, actor auth.Actor, shiftID uint) (*Detail, error) {
	q := s.db.WithContext(ctx).
		Preload("User").
		Preload("Readings", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Readings.Nozzle.FuelType").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments.PaymentMethod").
		Preload("Payments.Denominations.Denomination")

	sh, err := Load(q, actor, shiftID)
	if err != nil {
		return nil, err
	}

	views, summary := summarize(&sh)
	payments := sh.Payments
	if payments == nil {
		payments = []models.Payment{}
	}
	sh.Readings = nil
	sh.Payments = nil

	return &Detail{Shift: sh, Readings: views, Payments: payments, Summary: summary}, nil
}

// Active, çağıranın açık vardiyasını döndürür.
func (s *Service) Active(ctx context.Context, actor auth.Actor) (*Detail, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Shift{}).
		Where("station_id = ? AND user_id = ? AND status = ?", actor.StationID, actor.UserID, models.ShiftStatusInProgress).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("açık vardiya okunamadı: %w", err)
	}
	if len(ids) == 0 {
		return nil, apperror.New(apperror.KindShiftNotFound, "Açık vardiyanız yok")
	}
	return s.Get(ctx, actor, ids[0])
}

type ListFilter struct {
	Status   models.ShiftStatus
	Type     models.ShiftType
	UserID   uint
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type ListItem struct {
	ID                    uint               `json:"id"`
	UserID                uint               `json:"user_id"`
	UserName              string             `json:"user_name"`
	Type                  models.ShiftType   `json:"type"`
	Status                models.ShiftStatus `json:"status"`
	StartTime             time.Time          `json:"start_time"`
	EndTime               *time.Time         `json:"end_time"`
	TotalPaymentCollected decimal.Decimal    `json:"total_payment_collected"`
	NozzleCount           int                `json:"nozzle_count"`
	Summary               reconcile.Summary  `json:"summary"`
}

type Page struct {
	Items    []ListItem `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// List, vardiyaları filtreleyip sayfalar. Yönetici olmayanlar yalnızca kendi
// vardiyalarını görür; UserID filtresi onlar için yok sayılır.
func (s *Service) List(ctx context.Context, actor auth.Actor, f ListFilter) (*Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperror.Newf(apperror.KindInvalidInput, "Geçersiz durum: %q", f.Status)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperror.Newf(apperror.KindInvalidInput, "Geçersiz vardiya tipi: %q", f.Type)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	q := s.db.WithContext(ctx).Model(&models.Shift{}).Where("station_id = ?", actor.StationID)
	if !actor.IsAdmin() {
		q = q.Where("user_id = ?", actor.UserID)
	} else if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("start_time >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("start_time < ?", *f.To)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("vardiyalar sayılamadı: %w", err)
	}

	var shifts []models.Shift
	err := q.Preload("User").
		Preload("Readings.Nozzle.FuelType").
		Order("start_time DESC, id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("vardiyalar listelenemedi: %w", err)
	}

	items := make([]ListItem, 0, len(shifts))
	for i := range shifts {
		items = append(items, listItem(&shifts[i]))
	}

	return &Page{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// Pending, yöneticinin doğrulama kuyruğu: en eski önce.
func (s *Service) Pending(ctx context.Context, actor auth.Actor) ([]ListItem, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.KindForbidden, "Doğrulama kuyruğunu yalnızca yönetici görebilir")
	}

	var shifts []models.Shift
	err := s.db.WithContext(ctx).
		Where("station_id = ? AND status = ?", actor.StationID, models.ShiftStatusPendingVerification).
		Preload("User").
		Preload("Readings.Nozzle.FuelType").
		Order("end_time ASC, id ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("bekleyen vardiyalar listelenemedi: %w", err)
	}

	items := make([]ListItem, 0, len(shifts))
	for i := range shifts {
		items = append(items, listItem(&shifts[i]))
	}
	return items, nil
}

func listItem(sh *models.Shift) ListItem {
	_, summary := summarize(sh)
	item := ListItem{
		ID:                    sh.ID,
		UserID:                sh.UserID,
		Type:                  sh.Type,
		Status:                sh.Status,
		StartTime:             sh.StartTime,
		EndTime:               sh.EndTime,
		TotalPaymentCollected: sh.TotalPaymentCollected,
		NozzleCount:           len(sh.Readings),
		Summary:               summary,
	}
	if sh.User != nil {
		item.UserName = sh.User.Name
	}
	return item
}

// summarize, Readings.Nozzle.FuelType önceden yüklenmiş olmalı.
func summarize(sh *models.Shift) ([]ReadingView, reconcile.Summary) {
	views := make([]ReadingView, 0, len(sh.Readings))
	lines := make([]reconcile.Line, 0, len(sh.Readings))
	for _, r := range sh.Readings {
		price := decimal.Zero
		if r.Nozzle != nil {
			price = r.Nozzle.FuelType.Price
		}
		views = append(views, ReadingView{
			NozzleReading: r,
			Price:         price,
			Amount:        reconcile.ExpectedRevenue(r.FuelDispensed, price),
		})
		lines = append(lines, reconcile.Line{FuelDispensed: r.FuelDispensed, Price: price})
	}
	return views, reconcile.Summarize(lines, sh.TotalPaymentCollected)
}
