// Package reconcile, sayaç okumalarından satılan yakıtı ve beklenen ciroyu türetir.
// Tüm fonksiyonlar saftır; hiçbiri hata döndürmez.
package reconcile

import "github.com/shopspring/decimal"

// Balance, tahsilat ile beklenen ciro arasındaki farkın yönü.
type Balance string

const (
	BalanceShortage Balance = "shortage" // eksik tahsilat
	BalanceExcess   Balance = "excess"   // fazla tahsilat
	BalanceBalanced Balance = "balanced"
)

// FuelDispensed = max(0, closing - opening - testQty).
// Sayaç geri dönmesi veya fazla test miktarı girilmesi negatif hacim üretmez.
func FuelDispensed(opening, closing, testQty decimal.Decimal) decimal.Decimal {
	d := closing.Sub(opening).Sub(testQty)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FuelDispensedOrZero, kapanış okuması henüz yoksa sıfır döndürür.
func FuelDispensedOrZero(opening decimal.Decimal, closing decimal.NullDecimal, testQty decimal.Decimal) decimal.Decimal {
	if !closing.Valid {
		return decimal.Zero
	}
	return FuelDispensed(opening, closing.Decimal, testQty)
}

// ExpectedRevenue = fuelDispensed × price
func ExpectedRevenue(fuelDispensed, price decimal.Decimal) decimal.Decimal {
	return fuelDispensed.Mul(price)
}

// Line, özet hesabı için tek tabancanın girdisi.
type Line struct {
	FuelDispensed decimal.Decimal
	Price         decimal.Decimal
}

// Summary, bir vardiyanın mutabakat sonucu. Hiçbir zaman saklanmaz.
type Summary struct {
	TotalFuelSales decimal.Decimal `json:"total_fuel_sales"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	Shortage       decimal.Decimal `json:"shortage"` // pozitif = fazla, negatif = eksik
	Balance        Balance         `json:"balance"`
}

// Summarize, satırların beklenen cirosunu toplar ve tahsilatla karşılaştırır.
func Summarize(lines []Line, collected decimal.Decimal) Summary {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(ExpectedRevenue(l.FuelDispensed, l.Price))
	}
	diff := collected.Sub(total)
	return Summary{
		TotalFuelSales: total,
		TotalCollected: collected,
		Shortage:       diff,
		Balance:        BalanceOf(diff),
	}
}

func BalanceOf(diff decimal.Decimal) Balance {
	switch diff.Sign() {
	case 1:
		return BalanceExcess
	case -1:
		return BalanceShortage
	default:
		return BalanceBalanced
	}
}
