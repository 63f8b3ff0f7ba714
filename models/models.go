package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID    uint       `gorm:"primaryKey" json:"id"`
	Name  string     `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Items []MenuItem `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type MenuItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CategoryID uint            `gorm:"index;not null" json:"category_id"`
	Category   *Category       `json:"category,omitempty"`
	Name       string          `gorm:"size:200;not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
}

type Table struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Number int     `gorm:"uniqueIndex;not null" json:"number"`
	Orders []Order `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsOccupied reports whether any of the loaded orders is still active.
// Callers must preload Orders; the engine answers the same question with a query.
func (t Table) IsOccupied() bool {
	for _, o := range t.Orders {
		if o.IsActive {
			return true
		}
	}
	return false
}

type Order struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	TableID       uint        `gorm:"index;not null" json:"table_id"`
	Table         *Table      `json:"table,omitempty"`
	CustomerPhone *string     `gorm:"size:15" json:"customer_phone"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	IsActive      bool        `gorm:"not null" json:"is_active"`
	IsPaid        bool        `gorm:"not null;default:false" json:"is_paid"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// TotalAmount sums the line subtotals. Items and their MenuItem must be loaded.
func (o Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type ItemStatus string

const (
	StatusQueued    ItemStatus = "queued"
	StatusPreparing ItemStatus = "preparing"
	StatusPrepared  ItemStatus = "prepared"
	StatusDelivered ItemStatus = "delivered"
)

var statusRank = map[ItemStatus]int{
	StatusQueued:    0,
	StatusPreparing: 1,
	StatusPrepared:  2,
	StatusDelivered: 3,
}

func (s ItemStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s comes earlier than other in the kitchen flow.
func (s ItemStatus) Before(other ItemStatus) bool {
	return statusRank[s] < statusRank[other]
}

type OrderItem struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	OrderID    uint       `gorm:"index;not null" json:"order_id"`
	MenuItemID uint       `gorm:"index;not null" json:"menu_item_id"`
	MenuItem   MenuItem   `gorm:"constraint:OnDelete:CASCADE" json:"item"`
	Quantity   int        `gorm:"not null" json:"quantity"`
	Status     ItemStatus `gorm:"size:20;not null;default:queued" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Subtotal uses the current menu price, not a price captured at order time.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.MenuItem.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Role string

const (
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
	RoleManager Role = "manager"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"size:20" json:"role"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{&Category{}, &MenuItem{}, &Table{}, &Order{}, &OrderItem{}, &User{}}
}
