// Package pos holds the restaurant floor logic: the table registry, the order
// engine and the menu catalog, all backed by gorm.
package pos

import (
	"context"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/internal/billing"
	"github.com/gastrogenius/restaurant-pos/models"
)

// Notifier delivers a bill to the customer's phone.
type Notifier interface {
	SendBill(ctx context.Context, phone string, order models.Order, bill billing.Bill) error
}

type Engine struct {
	db       *gorm.DB
	tax      billing.Calculator
	notifier Notifier
	log      log.FieldLogger
}

func NewEngine(db *gorm.DB, tax billing.Calculator, notifier Notifier, logger log.FieldLogger) *Engine {
	return &Engine{db: db, tax: tax, notifier: notifier, log: logger}
}

// Tax exposes the calculator so receipts use the same rates as bills.
func (e *Engine) Tax() billing.Calculator {
	return e.tax
}

// Bill computes the taxes for the order's current lines.
func (e *Engine) Bill(order models.Order) billing.Bill {
	return e.tax.Compute(order.TotalAmount())
}

// withLines preloads what TotalAmount and receipts need.
func withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Table").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.MenuItem")
}
