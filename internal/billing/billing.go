// Package billing splits sales tax into its SGST and CGST halves using
// fixed-point arithmetic.
package billing

import (
	"github.com/shopspring/decimal"
)

var defaultRate = decimal.RequireFromString("0.025")

type Calculator struct {
	SGSTRate decimal.Decimal
	CGSTRate decimal.Decimal
}

// Default applies 2.5% for each half.
func Default() Calculator {
	return Calculator{SGSTRate: defaultRate, CGSTRate: defaultRate}
}

// Bill holds exact amounts; rounding happens only when they are displayed.
type Bill struct {
	Subtotal   decimal.Decimal
	SGST       decimal.Decimal
	CGST       decimal.Decimal
	GrandTotal decimal.Decimal
}

func (c Calculator) Compute(subtotal decimal.Decimal) Bill {
	sgst := subtotal.Mul(c.SGSTRate)
	cgst := subtotal.Mul(c.CGSTRate)
	return Bill{
		Subtotal:   subtotal,
		SGST:       sgst,
		CGST:       cgst,
		GrandTotal: subtotal.Add(sgst).Add(cgst),
	}
}

// PayableTotal is the grand total in whole units. Exact halves go to the even
// neighbour, as printed receipts always have.
func (b Bill) PayableTotal() decimal.Decimal {
	return b.GrandTotal.RoundBank(0)
}

// RateLabel renders a rate such as 0.025 as "2.5%".
func RateLabel(rate decimal.Decimal) string {
	return rate.Shift(2).String() + "%"
}
