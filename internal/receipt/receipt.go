// Package receipt lays out and prints the thermal-style tax invoice.
package receipt

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/gastrogenius/restaurant-pos/internal/billing"
	"github.com/gastrogenius/restaurant-pos/models"
)

// Page geometry in millimetres.
const (
	pageWidth   = 80.0
	pageHeight  = 200.0
	leftMargin  = 5.0
	rightMargin = 75.0
	topMargin   = 10.0
	lineHeight  = 5.0

	maxNameLength = 15
)

type Header struct {
	Name    string
	Tagline string
	Address string
	FSSAI   string
}

type Row struct {
	Name   string
	Qty    string
	Rate   string
	Amount string
}

// Receipt is the fully formatted content of one invoice.
type Receipt struct {
	Header    Header
	Date      string
	BillNo    string
	Table     string
	Rows      []Row
	Subtotal  string
	SGSTLabel string
	SGST      string
	CGSTLabel string
	CGST      string
	Total     string
}

// Build formats an order. Line rates and amounts are cut to whole units while
// the subtotal and taxes keep two decimals; only the grand total is rounded.
func Build(order models.Order, calc billing.Calculator, header Header, now time.Time) Receipt {
	r := Receipt{
		Header: header,
		Date:   now.Format("02/01/06"),
		BillNo: strconv.FormatUint(uint64(order.ID), 10),
	}
	if order.Table != nil {
		r.Table = strconv.Itoa(order.Table.Number)
	}

	for _, it := range order.Items {
		r.Rows = append(r.Rows, Row{
			Name:   truncate(it.MenuItem.Name, maxNameLength),
			Qty:    strconv.Itoa(it.Quantity),
			Rate:   wholeUnits(it.MenuItem.Price),
			Amount: wholeUnits(it.Subtotal()),
		})
	}

	bill := calc.Compute(order.TotalAmount())
	r.Subtotal = bill.Subtotal.StringFixed(2)
	r.SGSTLabel = fmt.Sprintf("SGST @%s :", billing.RateLabel(calc.SGSTRate))
	r.SGST = bill.SGST.StringFixed(2)
	r.CGSTLabel = fmt.Sprintf("CGST @%s :", billing.RateLabel(calc.CGSTRate))
	r.CGST = bill.CGST.StringFixed(2)
	r.Total = bill.PayableTotal().String()
	return r
}

func wholeUnits(d decimal.Decimal) string {
	return d.Truncate(0).String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Render draws the receipt as a single 80mm x 200mm PDF page.
func Render(w io.Writer, r Receipt, now time.Time) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(now)
	pdf.SetTitle("Bill No "+r.BillNo, true)
	pdf.AddPage()

	y := topMargin
	centered := func(s string) {
		pdf.Text(pageWidth/2-pdf.GetStringWidth(s)/2, y, s)
	}
	rightAligned := func(x float64, s string) {
		pdf.Text(x-pdf.GetStringWidth(s), y, s)
	}
	rule := func() {
		pdf.Line(leftMargin, y, rightMargin, y)
	}

	pdf.SetFont("Courier", "B", 12)
	centered(r.Header.Name)
	y += lineHeight
	pdf.SetFont("Courier", "", 10)
	centered(r.Header.Tagline)
	y += lineHeight
	centered(r.Header.Address)
	y += lineHeight

	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{0.35, 0.7}, 0)
	rule()
	y += lineHeight
	centered("TAX INVOICE")
	y += lineHeight
	rule()
	y += lineHeight * 1.5

	pdf.SetFont("Courier", "", 9)
	pdf.Text(leftMargin, y, "Date: "+r.Date)
	rightAligned(rightMargin, "Bill No: "+r.BillNo)
	y += lineHeight
	pdf.Text(leftMargin, y, "Table: "+r.Table)
	y += lineHeight
	rule()
	y += lineHeight

	pdf.Text(leftMargin, y, "Particulars")
	rightAligned(rightMargin-30, "Qty")
	rightAligned(rightMargin-15, "Rate")
	rightAligned(rightMargin, "Amount")
	y += lineHeight
	rule()
	y += lineHeight * 1.5

	for _, row := range r.Rows {
		pdf.Text(leftMargin, y, row.Name)
		rightAligned(rightMargin-30, row.Qty)
		rightAligned(rightMargin-15, row.Rate)
		rightAligned(rightMargin, row.Amount)
		y += lineHeight
	}

	y += lineHeight
	rule()
	y += lineHeight

	for _, total := range [][2]string{
		{"Sub Total :", r.Subtotal},
		{r.SGSTLabel, r.SGST},
		{r.CGSTLabel, r.CGST},
	} {
		rightAligned(rightMargin-18, total[0])
		rightAligned(rightMargin, total[1])
		y += lineHeight
	}
	rule()
	y += lineHeight

	pdf.SetFont("Courier", "B", 12)
	pdf.Text(leftMargin, y, "Total :")
	rightAligned(rightMargin, r.Total)
	y += lineHeight * 2

	pdf.SetFont("Courier", "", 9)
	centered("FSSAI NO - " + r.Header.FSSAI)
	y += lineHeight
	centered("Thank You")
	y += lineHeight
	centered("Visit Again")

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "failed to render receipt")
	}
	return nil
}
