// Package handlers exposes the POS engine over gin.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/gastrogenius/restaurant-pos/internal/auth"
	"github.com/gastrogenius/restaurant-pos/internal/pos"
	"github.com/gastrogenius/restaurant-pos/internal/receipt"
)

type Handler struct {
	engine *pos.Engine
	users  *auth.Users
	header receipt.Header
	now    func() time.Time
	log    log.FieldLogger
}

func New(engine *pos.Engine, users *auth.Users, header receipt.Header, logger log.FieldLogger) *Handler {
	return &Handler{engine: engine, users: users, header: header, now: time.Now, log: logger}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail writes the error body with the status matching the error kind.
// Unexpected errors are hidden from the caller and left on the context for the
// request logger.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr pos.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, pos.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pos.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, pos.ErrAlreadyOccupied):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": auth.ErrForbidden.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// badRequest reports a body that could not be decoded.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// bindOptionalJSON decodes the body when there is one.
func bindOptionalJSON(c *gin.Context, v interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, pos.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return uint(id), nil
}
