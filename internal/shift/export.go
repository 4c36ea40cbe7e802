package shift

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetReadings = "Okumalar"
	sheetPayments = "Tahsilat"
	sheetSummary  = "Özet"
)

// WriteXLSX, vardiya detayını okuma, tahsilat ve özet sayfaları olan bir xlsx olarak yazar.
func WriteXLSX(w io.Writer, d *Detail) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetReadings); err != nil {
		return fmt.Errorf("sayfa adlandırılamadı: %w", err)
	}
	for _, name := range []string{sheetPayments, sheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("%s sayfası oluşturulamadı: %w", name, err)
		}
	}

	readings := [][]any{{"Tabanca", "Yakıt", "Açılış", "Kapanış", "Test", "Satış (lt)", "Fiyat", "Tutar"}}
	for _, r := range d.Readings {
		code, fuel := "", ""
		if r.Nozzle != nil {
			code, fuel = r.Nozzle.Code, r.Nozzle.FuelType.Name
		}
		closing := any("")
		if r.ClosingReading.Valid {
			closing = num(r.ClosingReading.Decimal)
		}
		readings = append(readings, []any{
			code, fuel, num(r.OpeningReading), closing, num(r.TestQty),
			num(r.FuelDispensed), num(r.Price), num(r.Amount),
		})
	}
	if err := writeRows(f, sheetReadings, readings); err != nil {
		return err
	}

	payments := [][]any{{"Yöntem", "Tutar", "Litre", "Bozuk para", "Kupürler"}}
	for _, p := range d.Payments {
		method := ""
		if p.PaymentMethod != nil {
			method = p.PaymentMethod.Name
		}
		qty, coins := any(""), any("")
		if p.Quantity.Valid {
			qty = num(p.Quantity.Decimal)
		}
		if p.CoinsAmount.Valid {
			coins = num(p.CoinsAmount.Decimal)
		}
		breakdown := ""
		for i, l := range p.Denominations {
			if i > 0 {
				breakdown += ", "
			}
			label := fmt.Sprint(l.DenominationID)
			if l.Denomination != nil {
				label = l.Denomination.Label
			}
			breakdown += fmt.Sprintf("%d x %s", l.Count, label)
		}
		payments = append(payments, []any{method, num(p.Amount), qty, coins, breakdown})
	}
	if err := writeRows(f, sheetPayments, payments); err != nil {
		return err
	}

	owner := ""
	if d.Shift.User != nil {
		owner = d.Shift.User.Name
	}
	summary := [][]any{
		{"Vardiya", d.Shift.ID},
		{"Pompacı", owner},
		{"Tip", string(d.Shift.Type)},
		{"Durum", string(d.Shift.Status)},
		{"Başlangıç", d.Shift.StartTime.Format("2006-01-02 15:04")},
		{"Toplam satış", num(d.Summary.TotalFuelSales)},
		{"Toplam tahsilat", num(d.Summary.TotalCollected)},
		{"Fark", num(d.Summary.Shortage)},
		{"Sonuç", string(d.Summary.Balance)},
	}
	if d.Shift.EndTime != nil {
		summary = append(summary, []any{"Bitiş", d.Shift.EndTime.Format("2006-01-02 15:04")})
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx yazılamadı: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s sayfasına yazılamadı: %w", sheet, err)
		}
	}
	return nil
}

// num, hücreye sayısal değer olarak yazılacak yaklaşık float döndürür.
func num(v decimal.Decimal) float64 {
	return v.InexactFloat64()
}
