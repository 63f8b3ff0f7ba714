package pos

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/gastrogenius/restaurant-pos/models"
)

type PopularItem struct {
	MenuItemID uint   `json:"menu_item_id"`
	Name       string `json:"name"`
	TotalSold  int64  `json:"total_sold"`
}

const paidLines = "JOIN orders ON orders.id = order_items.order_id"

// PopularItems ranks menu items by quantity sold on paid orders. Items with
// equal totals come back in no particular order.
func (e *Engine) PopularItems(ctx context.Context, limit int) ([]PopularItem, error) {
	var items []PopularItem
	err := e.db.WithContext(ctx).
		Table("order_items").
		Select("menu_items.id AS menu_item_id, menu_items.name AS name, SUM(order_items.quantity) AS total_sold").
		Joins(paidLines).
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("orders.is_paid = ?", true).
		Group("menu_items.id, menu_items.name").
		Order("total_sold DESC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to rank popular items")
	}
	return items, nil
}

// TotalRevenue sums the totals of every paid order. The arithmetic happens in
// Go so that the database never rounds through floating point.
func (e *Engine) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var rows []struct {
		Quantity int
		Price    decimal.Decimal
	}
	err := e.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.quantity AS quantity, menu_items.price AS price").
		Joins(paidLines).
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("orders.is_paid = ?", true).
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(err, "failed to load paid lines")
	}

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}
	return total, nil
}

// RecentOrders returns the latest orders, newest first, with their lines.
func (e *Engine) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := withLines(e.db.WithContext(ctx)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load recent orders")
	}
	return orders, nil
}

// KitchenQueue lists every active order, oldest first, with its lines.
func (e *Engine) KitchenQueue(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := withLines(e.db.WithContext(ctx)).
		Where("is_active = ?", true).
		Order("created_at, id").
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load kitchen queue")
	}
	return orders, nil
}
