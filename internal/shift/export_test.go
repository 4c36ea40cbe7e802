package shift

import (
	"bytes"
	"context"
	"testing"

	"istasyon-backend/internal/models"
	"istasyon-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	svc, f := setup(t)
	ctx := context.Background()
	sh := startAB(t, svc, f)

	p := models.Payment{
		ShiftID:         sh.ID,
		PaymentMethodID: f.Cash.ID,
		Amount:          testutil.Dec("2000"),
		Denominations:   []models.PaymentDenomination{{DenominationID: f.Note200.ID, Count: 10}},
	}
	require.NoError(t, f.DB.Create(&p).Error)
	require.NoError(t, f.DB.Model(&models.Shift{}).Where("id = ?", sh.ID).
		Update("total_payment_collected", decimal.NewFromInt(2000)).Error)
	completeShift(t, svc, f, sh)

	d, err := svc.Get(ctx, actorOf(f.Attendant), sh.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, d))

	x, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer x.Close()
	assert.Equal(t, []string{sheetReadings, sheetPayments, sheetSummary}, x.GetSheetList())

	rows, err := x.GetRows(sheetReadings)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"P1-A", "Benzin", "1000", "1050", "0", "50", "100", "5000"}, rows[1])

	rows, err = x.GetRows(sheetPayments)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Nakit", rows[1][0])
	assert.Equal(t, "10 x 200 TL", rows[1][4])

	rows, err = x.GetRows(sheetSummary)
	require.NoError(t, err)
	values := map[string]string{}
	for _, r := range rows {
		if len(r) == 2 {
			values[r[0]] = r[1]
		}
	}
	assert.Equal(t, "6800", values["Toplam satış"])
	assert.Equal(t, "-4800", values["Fark"])
	assert.Equal(t, "shortage", values["Sonuç"])
	assert.Equal(t, string(models.ShiftStatusPendingVerification), values["Durum"])
}
