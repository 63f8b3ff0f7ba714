package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastrogenius/restaurant-pos/internal/billing"
	"github.com/gastrogenius/restaurant-pos/internal/pos"
	"github.com/gastrogenius/restaurant-pos/internal/receipt"
	"github.com/gastrogenius/restaurant-pos/models"
)

type tableView struct {
	ID         uint `json:"id"`
	Number     int  `json:"number"`
	IsOccupied bool `json:"is_occupied"`
}

func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.engine.ListTables(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	views := make([]tableView, 0, len(tables))
	for _, t := range tables {
		views = append(views, tableView{ID: t.ID, Number: t.Number, IsOccupied: t.IsOccupied()})
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) OpenTable(c *gin.Context) {
	var req struct {
		TableNumber *int `json:"table_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.engine.OpenSession(c.Request.Context(), *req.TableNumber)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// activeOrderOrNil treats a free table as no order rather than an error.
func (h *Handler) activeOrderOrNil(c *gin.Context, tableID uint) (*models.Order, error) {
	order, err := h.engine.ActiveOrder(c.Request.Context(), tableID)
	if errors.Is(err, pos.ErrNotFound) {
		return nil, nil
	}
	return order, err
}

// Menu is the ordering screen for one table: the full menu plus whatever is
// already on the table's open order.
func (h *Handler) Menu(c *gin.Context) {
	tableID, err := idParam(c, "table_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	table, err := h.engine.GetTable(ctx, tableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	categories, err := h.engine.ListMenu(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.activeOrderOrNil(c, tableID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"table":      table,
		"categories": categories,
		"order":      order,
	})
}

func (h *Handler) SubmitOrder(c *gin.Context) {
	tableID, err := idParam(c, "table_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req struct {
		Items []pos.Line `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.engine.AddItems(c.Request.Context(), tableID, req.Items)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "order": order})
}

// OrderStatus lists the open order's lines, newest first.
func (h *Handler) OrderStatus(c *gin.Context) {
	tableID, err := idParam(c, "table_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.engine.GetTable(c.Request.Context(), tableID); err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.activeOrderOrNil(c, tableID)
	if err != nil {
		h.fail(c, err)
		return
	}

	items := []models.OrderItem{}
	if order != nil {
		for i := len(order.Items) - 1; i >= 0; i-- {
			items = append(items, order.Items[i])
		}
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

// billView shows amounts exactly as the printed receipt does.
type billView struct {
	OrderID      uint   `json:"order_id"`
	Subtotal     string `json:"subtotal"`
	SGST         string `json:"sgst"`
	CGST         string `json:"cgst"`
	GrandTotal   string `json:"grand_total"`
	PayableTotal string `json:"payable_total"`
}

func newBillView(orderID uint, bill billing.Bill) billView {
	return billView{
		OrderID:      orderID,
		Subtotal:     bill.Subtotal.StringFixed(2),
		SGST:         bill.SGST.StringFixed(2),
		CGST:         bill.CGST.StringFixed(2),
		GrandTotal:   bill.GrandTotal.StringFixed(2),
		PayableTotal: bill.PayableTotal().String(),
	}
}

func (h *Handler) Bill(c *gin.Context) {
	tableID, err := idParam(c, "table_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.engine.ActiveOrder(c.Request.Context(), tableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newBillView(order.ID, h.engine.Bill(*order)))
}

// RequestBill stores the customer's phone and texts them the amount. The table
// stays open until it is cleared.
func (h *Handler) RequestBill(c *gin.Context) {
	tableID, err := idParam(c, "table_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req struct {
		Phone string `json:"phone"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	order, bill, err := h.engine.RequestBill(c.Request.Context(), tableID, req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "bill": newBillView(order.ID, bill)})
}

func (h *Handler) Receipt(c *gin.Context) {
	orderID, err := idParam(c, "order_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	order, err := h.engine.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.fail(c, err)
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := receipt.Render(&buf, receipt.Build(*order, h.engine.Tax(), h.header, now), now); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="bill_%d.pdf"`, order.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// ClearTable settles the table's open order, recording the phone if one is sent.
func (h *Handler) ClearTable(c *gin.Context) {
	tableID, err := idParam(c, "table_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req struct {
		Phone *string `json:"phone"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.engine.SettleTable(c.Request.Context(), tableID, req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared", "order": order})
}
