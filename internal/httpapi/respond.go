package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/store"
)

const (
	userHeader = "X-User-ID"
	userKey    = "user_id"
)

// requireUser takes the caller id from the X-User-ID header.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(userHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authentication required"})
			return
		}
		c.Set(userKey, id)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userKey)
}

// respondError writes {"detail": msg}. Only messages from the apperr
// taxonomy reach the client.
func (h *handler) respondError(c *gin.Context, err error) {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae) && ae.Kind != apperr.KindInternal:
		c.JSON(ae.Status(), gin.H{"detail": ae.Message})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": apperr.UserMessage(err, "internal error")})
	}
}

func idParam(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Invalid(name + " must be a positive integer")
	}
	return uint(n), nil
}

func currentID(c *gin.Context) (uint, error) {
	v := c.Query("current_id")
	if v == "" {
		return 0, apperr.Invalid("current_id is required")
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, apperr.Invalid("current_id must be an integer")
	}
	return uint(n), nil
}
