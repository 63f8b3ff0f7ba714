package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/gastrogenius/restaurant-pos/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.log.WithField("username", req.Username).Warn("login failed")
		h.fail(c, err)
		return
	}
	if err := auth.StartSession(c, id); err != nil {
		h.fail(c, err)
		return
	}

	h.log.WithFields(log.Fields{"username": id.Username, "role": id.Role}).Info("user logged in")
	c.JSON(http.StatusOK, id)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := auth.EndSession(c); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// Me returns the caller's identity.
func (h *Handler) Me(c *gin.Context) {
	id, _ := auth.Current(c)
	c.JSON(http.StatusOK, id)
}
