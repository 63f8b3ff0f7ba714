package pos

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/internal/billing"
	"github.com/gastrogenius/restaurant-pos/models"
)

const maxPhoneLength = 15

// Line is one requested (menu item, quantity) pair.
type Line struct {
	MenuItemID uint `json:"id"`
	Quantity   int  `json:"quantity"`
}

// AddItems appends queued lines to the table's active order, opening one if the
// table is free. Lines with a non-positive quantity are skipped once their menu
// item is known to exist. The whole
// submission is one transaction: an unknown menu item leaves nothing behind.
func (e *Engine) AddItems(ctx context.Context, tableID uint, lines []Line) (*models.Order, error) {
	var orderID uint
	added := 0
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := findTable(tx, "id = ?", tableID)
		if err != nil {
			return err
		}
		order, err := activeOrCreate(tx, table.ID)
		if err != nil {
			return err
		}
		orderID = order.ID

		for _, l := range lines {
			// every id must exist, even on lines that end up skipped
			var item models.MenuItem
			err := tx.First(&item, l.MenuItemID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("menu item %d", l.MenuItemID)
			}
			if err != nil {
				return pkgerrors.Wrap(err, "failed to load menu item")
			}
			if l.Quantity <= 0 {
				continue
			}
			line := models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: item.ID,
				Quantity:   l.Quantity,
				Status:     models.StatusQueued,
			}
			if err := tx.Omit("MenuItem").Create(&line).Error; err != nil {
				return pkgerrors.Wrap(err, "failed to add order line")
			}
			added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(log.Fields{"table_id": tableID, "order_id": orderID, "lines": added}).Info("order lines submitted")
	return e.GetOrder(ctx, orderID)
}

// activeOrCreate is the get-or-create half of the table session. A lost insert
// race re-reads the winner's order instead of failing.
func activeOrCreate(tx *gorm.DB, tableID uint) (*models.Order, error) {
	var order models.Order
	active := tx.Where("table_id = ? AND is_active = ?", tableID, true)
	err := active.Session(&gorm.Session{}).First(&order).Error
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(err, "failed to load active order")
	}

	order = models.Order{TableID: tableID, IsActive: true}
	// savepoint, so a unique violation does not poison the outer transaction
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&order).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		order = models.Order{}
		if err := active.Session(&gorm.Session{}).First(&order).Error; err != nil {
			return nil, pkgerrors.Wrap(err, "failed to load active order")
		}
		return &order, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create order")
	}
	return &order, nil
}

func (e *Engine) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := withLines(e.db.WithContext(ctx)).First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("order %d", orderID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load order")
	}
	return &order, nil
}

// UpdateItemStatus writes any of the four statuses regardless of the current
// one. Moving backwards is allowed but logged.
func (e *Engine) UpdateItemStatus(ctx context.Context, orderItemID uint, status models.ItemStatus) (*models.OrderItem, error) {
	if !status.Valid() {
		return nil, ValidationError{Field: "status", Message: "must be one of queued, preparing, prepared, delivered"}
	}

	db := e.db.WithContext(ctx)
	var item models.OrderItem
	err := db.Preload("MenuItem").First(&item, orderItemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("order item %d", orderItemID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load order item")
	}

	previous := item.Status
	err = db.Model(&models.OrderItem{}).Where("id = ?", item.ID).Update("status", status).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to update order item status")
	}
	item.Status = status

	entry := e.log.WithFields(log.Fields{"order_item_id": item.ID, "from": previous, "to": status})
	if status.Before(previous) {
		entry.Warn("order item status moved backwards")
	} else {
		entry.Info("order item status updated")
	}
	return &item, nil
}

func validatePhone(phone string) error {
	if len(phone) > maxPhoneLength {
		return ValidationError{Field: "phone", Message: "must be at most 15 characters"}
	}
	return nil
}

// Settle closes an open order as paid, recording the phone when given. It is a
// one-way transition: a closed order is never reopened.
func (e *Engine) Settle(ctx context.Context, orderID uint, phone *string) (*models.Order, error) {
	updates := map[string]interface{}{"is_active": false, "is_paid": true}
	if phone != nil && *phone != "" {
		if err := validatePhone(*phone); err != nil {
			return nil, err
		}
		updates["customer_phone"] = *phone
	}

	res := e.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND is_active = ?", orderID, true).
		Updates(updates)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(res.Error, "failed to settle order")
	}
	if res.RowsAffected == 0 {
		return nil, notFound("active order %d", orderID)
	}

	order, err := e.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(log.Fields{"order_id": order.ID, "total": order.TotalAmount().StringFixed(2)}).Info("order settled")
	return order, nil
}

// SettleTable settles the table's active order.
func (e *Engine) SettleTable(ctx context.Context, tableID uint, phone *string) (*models.Order, error) {
	order, err := e.ActiveOrder(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return e.Settle(ctx, order.ID, phone)
}

// RequestBill records the customer's phone on the active order and texts them
// the amount. The order stays open; a failed notification is only logged.
func (e *Engine) RequestBill(ctx context.Context, tableID uint, phone string) (*models.Order, billing.Bill, error) {
	if err := validatePhone(phone); err != nil {
		return nil, billing.Bill{}, err
	}
	order, err := e.ActiveOrder(ctx, tableID)
	if err != nil {
		return nil, billing.Bill{}, err
	}

	if phone != "" {
		err := e.db.WithContext(ctx).Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("customer_phone", phone).Error
		if err != nil {
			return nil, billing.Bill{}, pkgerrors.Wrap(err, "failed to record customer phone")
		}
		order.CustomerPhone = &phone
	}

	bill := e.Bill(*order)
	if phone != "" && e.notifier != nil {
		if err := e.notifier.SendBill(ctx, phone, *order, bill); err != nil {
			e.log.WithError(err).WithField("order_id", order.ID).Warn("failed to send bill")
		}
	}
	return order, bill, nil
}
