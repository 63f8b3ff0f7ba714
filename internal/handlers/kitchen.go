package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gastrogenius/restaurant-pos/models"
)

func (h *Handler) KitchenQueue(c *gin.Context) {
	orders, err := h.engine.KitchenQueue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) UpdateItemStatus(c *gin.Context) {
	var req struct {
		ItemID uint              `json:"item_id" binding:"required"`
		Status models.ItemStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.engine.UpdateItemStatus(c.Request.Context(), req.ItemID, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "item": item})
}
