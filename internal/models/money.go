package models

import "github.com/shopspring/decimal"

// DefaultVATMultiplier converts net amounts to gross.
var DefaultVATMultiplier = decimal.RequireFromString("1.27")

// LineNet is quantity × unit price.
func LineNet(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Gross applies the VAT multiplier and rounds to cents.
func Gross(net, vat decimal.Decimal) decimal.Decimal {
	return net.Mul(vat).Round(2)
}
