// Package api holds the gin handlers. Handlers parse and validate the
// request, call into the service layer, and translate domain errors to
// HTTP. No authorization logic lives here.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/huddle/internal/service"
)

// writeError maps a service error onto an HTTP response.
//
// The body shape is {"error": <message>, "reason": <tag>} — the client
// switches on the reason tag to pick the user-facing copy, the message is
// a fallback. Unknown errors become an opaque 500; the details go to the
// log, never to the client.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var status int
	switch se.Kind {
	case service.KindUnauthorized:
		// The actor is authenticated (middleware already ran) but lacks
		// the grant, so this is 403, not 401.
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindInvalidState:
		status = http.StatusUnprocessableEntity
	case service.KindValidation:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": se.Message}
	if se.Reason != "" {
		body["reason"] = se.Reason
	}
	c.JSON(status, body)
}
