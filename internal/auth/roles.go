package auth

import (
	"strings"

	"github.com/gastrogenius/restaurant-pos/models"
)

// Operation names an action a role may be allowed to invoke.
type Operation string

const (
	OpOpenTable        Operation = "open_table"
	OpViewMenu         Operation = "view_menu"
	OpSubmitOrder      Operation = "submit_order"
	OpViewOrderStatus  Operation = "view_order_status"
	OpRequestBill      Operation = "request_bill"
	OpDownloadReceipt  Operation = "download_receipt"
	OpSettleOrder      Operation = "settle_order"
	OpViewKitchen      Operation = "view_kitchen"
	OpUpdateItemStatus Operation = "update_item_status"
	OpViewAnalytics    Operation = "view_analytics"
	OpManageMenu       Operation = "manage_menu"
	OpForceClearTable  Operation = "force_clear_table"
)

var floorOps = []Operation{
	OpOpenTable, OpViewMenu, OpSubmitOrder, OpViewOrderStatus,
	OpRequestBill, OpDownloadReceipt, OpSettleOrder,
}

var permissions = map[models.Role]map[Operation]bool{
	models.RoleWaiter:  allow(floorOps...),
	models.RoleKitchen: allow(OpViewKitchen, OpUpdateItemStatus),
	models.RoleManager: allow(append(floorOps, OpViewKitchen, OpViewAnalytics, OpManageMenu, OpForceClearTable)...),
}

func allow(ops ...Operation) map[Operation]bool {
	m := make(map[Operation]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}

// Identity is an authenticated caller.
type Identity struct {
	UserID   uint        `json:"user_id,omitempty"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// CanPerform is the single permission check for every endpoint.
func CanPerform(id Identity, op Operation) bool {
	return permissions[NormalizeRole(string(id.Role))][op]
}

// NormalizeRole maps group-style names ("Manager", "KITCHEN") to a role.
// Anything unrecognised, including the empty string, is a waiter.
func NormalizeRole(s string) models.Role {
	switch models.Role(strings.ToLower(strings.TrimSpace(s))) {
	case models.RoleManager:
		return models.RoleManager
	case models.RoleKitchen:
		return models.RoleKitchen
	default:
		return models.RoleWaiter
	}
}
