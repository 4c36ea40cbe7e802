package ledger

import (
	"context"
	"fmt"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// line, kupür değeri çözülmüş bir döküm satırı.
type line struct {
	DenominationID uint
	Count          int
	Value          decimal.Decimal
}

// resolveLines, istek satırlarını istasyonun kupür kataloğuna göre doğrular.
// Adedi sıfır olan satırlar atılır.
func (s *Service) resolveLines(ctx context.Context, stationID uint, in []DenominationInput) ([]line, error) {
	if len(in) == 0 {
		return nil, nil
	}
	denoms, err := s.catalog.Denominations(ctx, stationID)
	if err != nil {
		return nil, err
	}
	values := make(map[uint]decimal.Decimal, len(denoms))
	for _, d := range denoms {
		values[d.ID] = d.Value
	}

	seen := make(map[uint]struct{}, len(in))
	lines := make([]line, 0, len(in))
	for _, l := range in {
		if l.Count < 0 {
			return nil, apperror.Newf(apperror.KindInvalidInput, "Kupür adedi negatif olamaz (kupür #%d)", l.DenominationID)
		}
		v, ok := values[l.DenominationID]
		if !ok {
			return nil, apperror.Newf(apperror.KindInvalidInput, "Kupür bulunamadı: %d", l.DenominationID)
		}
		if _, dup := seen[l.DenominationID]; dup {
			return nil, apperror.Newf(apperror.KindInvalidInput, "Kupür iki kez girildi: %d", l.DenominationID)
		}
		seen[l.DenominationID] = struct{}{}
		if l.Count == 0 {
			continue
		}
		lines = append(lines, line{DenominationID: l.DenominationID, Count: l.Count, Value: v})
	}
	return lines, nil
}

func existingLines(rows []models.PaymentDenomination) []line {
	lines := make([]line, 0, len(rows))
	for _, r := range rows {
		l := line{DenominationID: r.DenominationID, Count: r.Count}
		if r.Denomination != nil {
			l.Value = r.Denomination.Value
		}
		lines = append(lines, l)
	}
	return lines
}

// checkComposition: kupür satırı veya sıfırdan farklı bozuk para girildiyse
// Σ(adet × değer) + bozuk para = tutar. Yalnızca sıfır bozuk para döküm sayılmaz.
func checkComposition(amount decimal.Decimal, coins decimal.NullDecimal, lines []line) error {
	if len(lines) == 0 && (!coins.Valid || coins.Decimal.IsZero()) {
		return nil
	}
	total := coins.Decimal
	for _, l := range lines {
		total = total.Add(l.Value.Mul(decimal.NewFromInt(int64(l.Count))))
	}
	if !total.Equal(amount) {
		return apperror.Newf(apperror.KindDenominationMismatch,
			"Kupür dökümü (%s) tutarla (%s) uyuşmuyor", total.StringFixed(2), amount.StringFixed(2))
	}
	return nil
}

func createLines(tx *gorm.DB, paymentID uint, lines []line) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.PaymentDenomination, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, models.PaymentDenomination{PaymentID: paymentID, DenominationID: l.DenominationID, Count: l.Count})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("kupür dökümü kaydedilemedi: %w", err)
	}
	return nil
}
