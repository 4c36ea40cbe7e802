// Package ledger, vardiya ödemelerini ve kupür dökümlerini tutar.
//
// Her işlem ödeme satırı yazımını ve Shift.total_payment_collected ayarını aynı
// transaction içinde yapar; toplam her zaman canlı ödeme tutarlarının toplamına eşittir.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/audit"
	"istasyon-backend/internal/auth"
	"istasyon-backend/internal/catalog"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/shift"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	catalog catalog.Reader
}

func NewService(db *gorm.DB, reader catalog.Reader) *Service {
	return &Service{db: db, catalog: reader}
}

type DenominationInput struct {
	DenominationID uint `json:"denomination_id"`
	Count          int  `json:"count"`
}

type PaymentInput struct {
	PaymentMethodID uint                `json:"payment_method_id"`
	Amount          decimal.Decimal     `json:"amount"`
	Quantity        *decimal.Decimal    `json:"quantity"`
	CoinsAmount     *decimal.Decimal    `json:"coins_amount"`
	Denominations   []DenominationInput `json:"denominations"`
}

// UpdatePaymentInput alanları opsiyoneldir. Denominations verilirse (boş liste
// dahil) mevcut döküm tamamen değiştirilir.
type UpdatePaymentInput struct {
	PaymentMethodID *uint                `json:"payment_method_id"`
	Amount          *decimal.Decimal     `json:"amount"`
	Quantity        *decimal.Decimal     `json:"quantity"`
	CoinsAmount     *decimal.Decimal     `json:"coins_amount"`
	Denominations   *[]DenominationInput `json:"denominations"`
}

// List, vardiyanın ödemelerini kayıt sırasıyla döndürür.
func (s *Service) List(ctx context.Context, actor auth.Actor, shiftID uint) ([]models.Payment, error) {
	db := s.db.WithContext(ctx)
	sh, err := shift.Load(db, actor, shiftID)
	if err != nil {
		return nil, err
	}

	var payments []models.Payment
	err = db.Preload("PaymentMethod").
		Preload("Denominations.Denomination").
		Where("shift_id = ?", sh.ID).
		Order("id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("ödemeler listelenemedi: %w", err)
	}
	return payments, nil
}

// Add, ödemeyi dökümüyle birlikte kaydeder ve vardiya toplamını artırır.
func (s *Service) Add(ctx context.Context, actor auth.Actor, shiftID uint, in PaymentInput) (*models.Payment, error) {
	if err := validateAmounts(&in.Amount, in.Quantity, in.CoinsAmount); err != nil {
		return nil, err
	}
	if _, err := s.catalog.PaymentMethod(ctx, actor.StationID, in.PaymentMethodID); err != nil {
		return nil, err
	}
	lines, err := s.resolveLines(ctx, actor.StationID, in.Denominations)
	if err != nil {
		return nil, err
	}
	if err := checkComposition(in.Amount, nullable(in.CoinsAmount), lines); err != nil {
		return nil, err
	}

	p := models.Payment{
		ShiftID:         shiftID,
		PaymentMethodID: in.PaymentMethodID,
		Amount:          in.Amount,
		Quantity:        nullable(in.Quantity),
		CoinsAmount:     nullable(in.CoinsAmount),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := shift.Lock(tx, actor, shiftID, shift.Authorize)
		if err != nil {
			return err
		}

		if err := tx.Omit("Denominations").Create(&p).Error; err != nil {
			return fmt.Errorf("ödeme kaydedilemedi: %w", err)
		}
		if err := createLines(tx, p.ID, lines); err != nil {
			return err
		}
		if err := adjustTotal(tx, sh, p.Amount); err != nil {
			return err
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityPayment,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Vardiya #%d: %s tutarında ödeme eklendi", sh.ID, p.Amount.StringFixed(2)),
			After:       p,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, p.ID)
}

// Update, ödemeyi günceller ve toplamı (yeni - eski) kadar ayarlar.
func (s *Service) Update(ctx context.Context, actor auth.Actor, shiftID, paymentID uint, in UpdatePaymentInput) (*models.Payment, error) {
	if in.PaymentMethodID == nil && in.Amount == nil && in.Quantity == nil && in.CoinsAmount == nil && in.Denominations == nil {
		return nil, apperror.New(apperror.KindInvalidInput, "Güncellenecek alan yok")
	}
	if err := validateAmounts(in.Amount, in.Quantity, in.CoinsAmount); err != nil {
		return nil, err
	}
	if in.PaymentMethodID != nil {
		if _, err := s.catalog.PaymentMethod(ctx, actor.StationID, *in.PaymentMethodID); err != nil {
			return nil, err
		}
	}
	var replacement []line
	if in.Denominations != nil {
		var err error
		if replacement, err = s.resolveLines(ctx, actor.StationID, *in.Denominations); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := shift.Lock(tx, actor, shiftID, shift.Authorize)
		if err != nil {
			return err
		}
		p, err := loadPayment(tx, sh.ID, paymentID)
		if err != nil {
			return err
		}
		before := p

		if in.PaymentMethodID != nil {
			p.PaymentMethodID = *in.PaymentMethodID
		}
		if in.Amount != nil {
			p.Amount = *in.Amount
		}
		if in.Quantity != nil {
			p.Quantity = decimal.NewNullDecimal(*in.Quantity)
		}
		if in.CoinsAmount != nil {
			p.CoinsAmount = decimal.NewNullDecimal(*in.CoinsAmount)
		}

		lines := existingLines(p.Denominations)
		if in.Denominations != nil {
			lines = replacement
			// boş liste dökümü tamamen temizler; bozuk para da birlikte gönderilmediyse silinir
			if len(lines) == 0 && in.CoinsAmount == nil {
				p.CoinsAmount = decimal.NullDecimal{}
			}
		}
		if err := checkComposition(p.Amount, p.CoinsAmount, lines); err != nil {
			return err
		}

		err = tx.Model(&models.Payment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"payment_method_id": p.PaymentMethodID,
			"amount":            p.Amount,
			"quantity":          p.Quantity,
			"coins_amount":      p.CoinsAmount,
		}).Error
		if err != nil {
			return fmt.Errorf("ödeme güncellenemedi: %w", err)
		}

		if in.Denominations != nil {
			if err := tx.Where("payment_id = ?", p.ID).Delete(&models.PaymentDenomination{}).Error; err != nil {
				return fmt.Errorf("kupür dökümü silinemedi: %w", err)
			}
			if err := createLines(tx, p.ID, lines); err != nil {
				return err
			}
		}

		if delta := p.Amount.Sub(before.Amount); !delta.IsZero() {
			if err := adjustTotal(tx, sh, delta); err != nil {
				return err
			}
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityPayment,
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Vardiya #%d: ödeme güncellendi (%s → %s)", sh.ID, before.Amount.StringFixed(2), p.Amount.StringFixed(2)),
			Before:      before,
			After:       p,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, paymentID)
}

// Delete, ödemeyi dökümüyle birlikte siler ve toplamdan düşer.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, shiftID, paymentID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sh, err := shift.Lock(tx, actor, shiftID, shift.Authorize)
		if err != nil {
			return err
		}
		p, err := loadPayment(tx, sh.ID, paymentID)
		if err != nil {
			return err
		}

		if err := tx.Where("payment_id = ?", p.ID).Delete(&models.PaymentDenomination{}).Error; err != nil {
			return fmt.Errorf("kupür dökümü silinemedi: %w", err)
		}
		if err := tx.Delete(&models.Payment{}, p.ID).Error; err != nil {
			return fmt.Errorf("ödeme silinemedi: %w", err)
		}
		if err := adjustTotal(tx, sh, p.Amount.Neg()); err != nil {
			return err
		}

		return audit.Write(tx, actor, audit.LogOptions{
			EntityType:  audit.EntityPayment,
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Vardiya #%d: %s tutarında ödeme silindi", sh.ID, p.Amount.StringFixed(2)),
			Before:      p,
		})
	})
}

// adjustTotal, toplamı SQL tarafında artırır. Onaylanmış vardiyada satır
// eşleşmez ve ShiftLocked döner.
func adjustTotal(tx *gorm.DB, sh models.Shift, delta decimal.Decimal) error {
	res := tx.Model(&models.Shift{}).
		Where("id = ? AND status <> ?", sh.ID, models.ShiftStatusVerified).
		Update("total_payment_collected", gorm.Expr("total_payment_collected + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("vardiya toplamı güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperror.Error{Kind: apperror.KindShiftLocked, Message: "Onaylanmış vardiyaya ödeme işlenemez", ShiftID: sh.ID, Status: string(models.ShiftStatusVerified)}
	}
	return nil
}

func loadPayment(tx *gorm.DB, shiftID, paymentID uint) (models.Payment, error) {
	var p models.Payment
	err := tx.Preload("Denominations.Denomination").
		Where("id = ? AND shift_id = ?", paymentID, shiftID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p, &apperror.Error{Kind: apperror.KindPaymentNotFound, Message: "Ödeme bulunamadı", ShiftID: shiftID, PaymentID: paymentID}
		}
		return p, fmt.Errorf("ödeme okunamadı: %w", err)
	}
	return p, nil
}

func (s *Service) reload(ctx context.Context, paymentID uint) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).
		Preload("PaymentMethod").
		Preload("Denominations.Denomination").
		First(&p, paymentID).Error
	if err != nil {
		return nil, fmt.Errorf("ödeme okunamadı: %w", err)
	}
	return &p, nil
}

func validateAmounts(amount, quantity, coins *decimal.Decimal) error {
	if amount != nil && amount.IsNegative() {
		return apperror.New(apperror.KindInvalidInput, "Tutar negatif olamaz")
	}
	if quantity != nil && quantity.IsNegative() {
		return apperror.New(apperror.KindInvalidInput, "Miktar negatif olamaz")
	}
	if coins != nil && coins.IsNegative() {
		return apperror.New(apperror.KindInvalidInput, "Bozuk para tutarı negatif olamaz")
	}
	return nil
}

func nullable(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}
