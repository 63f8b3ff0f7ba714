package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/gastrogenius/restaurant-pos/internal/pos"
)

const (
	dashboardPopular = 5
	dashboardRecent  = 10
)

type recentOrder struct {
	ID          uint            `json:"id"`
	TableNumber int             `json:"table_number"`
	CreatedAt   time.Time       `json:"created_at"`
	IsActive    bool            `json:"is_active"`
	IsPaid      bool            `json:"is_paid"`
	Total       decimal.Decimal `json:"total"`
}

// Dashboard reports revenue, the best sellers and the latest orders.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	revenue, err := h.engine.TotalRevenue(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	popular, err := h.engine.PopularItems(ctx, dashboardPopular)
	if err != nil {
		h.fail(c, err)
		return
	}
	orders, err := h.engine.RecentOrders(ctx, dashboardRecent)
	if err != nil {
		h.fail(c, err)
		return
	}

	recent := make([]recentOrder, 0, len(orders))
	for _, o := range orders {
		r := recentOrder{ID: o.ID, CreatedAt: o.CreatedAt, IsActive: o.IsActive, IsPaid: o.IsPaid, Total: o.TotalAmount()}
		if o.Table != nil {
			r.TableNumber = o.Table.Number
		}
		recent = append(recent, r)
	}
	if popular == nil {
		popular = []pos.PopularItem{}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_revenue": revenue,
		"popular_items": popular,
		"recent_orders": recent,
	})
}

func (h *Handler) ListMenu(c *gin.Context) {
	categories, err := h.engine.ListMenu(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

type menuItemRequest struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
}

func (r menuItemRequest) input() pos.MenuItemInput {
	return pos.MenuItemInput{CategoryID: r.CategoryID, Name: r.Name, Price: r.Price}
}

func (h *Handler) CreateMenuItem(c *gin.Context) {
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.engine.CreateMenuItem(c.Request.Context(), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	itemID, err := idParam(c, "item_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.engine.UpdateMenuItem(c.Request.Context(), itemID, req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	itemID, err := idParam(c, "item_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.engine.DeleteMenuItem(c.Request.Context(), itemID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.engine.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	categoryID, err := idParam(c, "category_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.engine.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ForceClearTable closes the table without a settlement.
func (h *Handler) ForceClearTable(c *gin.Context) {
	tableID, err := idParam(c, "table_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	closed, err := h.engine.ForceClear(c.Request.Context(), tableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "closed_orders": closed})
}
