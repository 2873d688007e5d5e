package models

import "github.com/shopspring/decimal"

var (
	freeShippingOver = decimal.NewFromInt(100)
	flatShipping     = decimal.NewFromInt(10)
	taxRate          = decimal.RequireFromString("0.15")
)

// Totals are the four checkout amounts of an order
type Totals struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// QuoteTotals prices a list of line items the way checkout does: shipping is
// free above 100, tax is 15% of the items, each amount rounded to cents.
func QuoteTotals(items []OrderItem) Totals {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	itemsPrice := sum.Round(2)
	shipping := flatShipping
	if itemsPrice.GreaterThan(freeShippingOver) {
		shipping = decimal.Zero
	}
	tax := itemsPrice.Mul(taxRate).Round(2)
	total := itemsPrice.Add(shipping).Add(tax)

	return Totals{
		ItemsPrice:    itemsPrice.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		TotalPrice:    total.InexactFloat64(),
	}
}

// TotalsConsistent reports whether TotalPrice equals the sum of the other three
// amounts, compared at cent precision.
func (o Order) TotalsConsistent() bool {
	parts := decimal.NewFromFloat(o.ItemsPrice).
		Add(decimal.NewFromFloat(o.ShippingPrice)).
		Add(decimal.NewFromFloat(o.TaxPrice)).
		Round(2)
	return parts.Equal(decimal.NewFromFloat(o.TotalPrice).Round(2))
}

// RoundCents rounds a money amount to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
