package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeHundred(t *testing.T) {
	bill := Default().Compute(decimal.NewFromInt(100))

	assert.Equal(t, "2.50", bill.SGST.StringFixed(2))
	assert.Equal(t, "2.50", bill.CGST.StringFixed(2))
	assert.Equal(t, "105.00", bill.GrandTotal.StringFixed(2))
	assert.Equal(t, "105", bill.PayableTotal().String())
}

func TestComputeKeepsExactAmounts(t *testing.T) {
	bill := Default().Compute(decimal.RequireFromString("10.10"))

	assert.True(t, bill.SGST.Equal(decimal.RequireFromString("0.2525")))
	assert.Equal(t, "0.25", bill.SGST.StringFixed(2))
	assert.True(t, bill.GrandTotal.Equal(decimal.RequireFromString("10.605")))
	assert.Equal(t, "11", bill.PayableTotal().String())
}

func TestPayableTotalRoundsHalfToEven(t *testing.T) {
	// 10.00 + 5% = 10.50, which prints as 10
	bill := Default().Compute(decimal.NewFromInt(10))
	assert.Equal(t, "10", bill.PayableTotal().String())

	// 30.00 + 5% = 31.50, which prints as 32
	bill = Default().Compute(decimal.NewFromInt(30))
	assert.Equal(t, "32", bill.PayableTotal().String())
}

func TestCustomRates(t *testing.T) {
	calc := Calculator{SGSTRate: decimal.RequireFromString("0.09"), CGSTRate: decimal.RequireFromString("0.09")}
	bill := calc.Compute(decimal.NewFromInt(200))

	assert.Equal(t, "18.00", bill.SGST.StringFixed(2))
	assert.Equal(t, "236", bill.PayableTotal().String())
}

func TestRateLabel(t *testing.T) {
	assert.Equal(t, "2.5%", RateLabel(decimal.RequireFromString("0.025")))
	assert.Equal(t, "9%", RateLabel(decimal.RequireFromString("0.09")))
}
