// Package pricing turns catalog prices and discount percentages into the
// amounts shown in the cart and captured on orders.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// EffectiveUnitPrice applies a percentage discount to price. A discount of zero
// or less leaves the price unchanged.
func EffectiveUnitPrice(price float64, discount int) float64 {
	return effective(price, discount).InexactFloat64()
}

func effective(price float64, discount int) decimal.Decimal {
	p := decimal.NewFromFloat(price)
	if discount <= 0 {
		return p
	}
	return p.Mul(hundred.Sub(decimal.NewFromInt(int64(discount)))).Div(hundred)
}

func LineTotal(price float64, discount, quantity int) float64 {
	return lineTotal(price, discount, quantity).InexactFloat64()
}

func lineTotal(price float64, discount, quantity int) decimal.Decimal {
	return effective(price, discount).Mul(decimal.NewFromInt(int64(quantity)))
}

// Line is one priced row of a cart or order summary.
type Line struct {
	Price    float64
	Discount int
	Quantity int
}

// Total sums the effective line totals.
func Total(lines []Line) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(lineTotal(l.Price, l.Discount, l.Quantity))
	}
	return sum.InexactFloat64()
}
