package invoicing

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept for monetary amounts
const MoneyScale = 2

// RoundMoney rounds half away from zero to MoneyScale places
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// LineTotal is quantity × price rounded to MoneyScale
func LineTotal(quantity, price decimal.Decimal) decimal.Decimal {
	return RoundMoney(quantity.Mul(price))
}

// SumItems returns Σ item totals
func SumItems(items []InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	return total
}

// Remaining returns total − paid
func Remaining(total, paid decimal.Decimal) decimal.Decimal {
	return total.Sub(paid)
}
