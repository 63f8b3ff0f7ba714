package pos

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gastrogenius/restaurant-pos/models"
)

// ListTables returns every table by number with its active order loaded, so
// Table.IsOccupied can be read without further queries.
func (e *Engine) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := e.db.WithContext(ctx).
		Preload("Orders", "is_active = ?", true).
		Order("number").
		Find(&tables).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list tables")
	}
	return tables, nil
}

func (e *Engine) IsOccupied(ctx context.Context, tableID uint) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&models.Order{}).
		Where("table_id = ? AND is_active = ?", tableID, true).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to count active orders")
	}
	return count > 0, nil
}

func (e *Engine) GetTable(ctx context.Context, tableID uint) (*models.Table, error) {
	return findTable(e.db.WithContext(ctx), "id = ?", tableID)
}

func findTable(db *gorm.DB, query string, arg interface{}) (*models.Table, error) {
	var table models.Table
	err := db.Where(query, arg).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("table %v", arg)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load table")
	}
	return &table, nil
}

// OpenSession starts the table's active order. The insert is the check: the
// one-active-order-per-table index rejects a second open, so concurrent
// callers cannot both succeed.
func (e *Engine) OpenSession(ctx context.Context, tableNumber int) (*models.Order, error) {
	db := e.db.WithContext(ctx)
	table, err := findTable(db, "number = ?", tableNumber)
	if err != nil {
		return nil, err
	}

	order := models.Order{TableID: table.ID, IsActive: true}
	err = db.Create(&order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("table %d: %w", table.Number, ErrAlreadyOccupied)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open table session")
	}
	order.Table = table

	e.log.WithFields(log.Fields{"table": table.Number, "order_id": order.ID}).Info("table session opened")
	return &order, nil
}

// ActiveOrder returns the table's open order with its lines.
func (e *Engine) ActiveOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	var order models.Order
	err := withLines(e.db.WithContext(ctx)).
		Where("table_id = ? AND is_active = ?", tableID, true).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("active order for table %d", tableID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load active order")
	}
	return &order, nil
}

// ForceClear closes whatever is open on the table as paid, skipping the
// normal settlement (no phone is captured). It returns how many orders closed.
func (e *Engine) ForceClear(ctx context.Context, tableID uint) (int64, error) {
	db := e.db.WithContext(ctx)
	table, err := findTable(db, "id = ?", tableID)
	if err != nil {
		return 0, err
	}

	res := db.Model(&models.Order{}).
		Where("table_id = ? AND is_active = ?", table.ID, true).
		Updates(map[string]interface{}{"is_active": false, "is_paid": true})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(res.Error, "failed to clear table")
	}

	e.log.WithFields(log.Fields{"table": table.Number, "closed": res.RowsAffected}).Warn("table force-cleared")
	return res.RowsAffected, nil
}
