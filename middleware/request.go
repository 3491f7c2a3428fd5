// request.go - Request-ID und Zugriffsprotokoll fuer den HTTP-Router
// Enthaelt: RequestID(), Logger(), RequestIDFrom()
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader ist der Header, ueber den die Request-ID ausgetauscht wird
const RequestIDHeader = "X-Request-Id"

const requestIDKey = "request_id"

// RequestID vergibt jeder Anfrage eine ID. Eine gueltige UUID des Clients
// wird uebernommen, sonst wird eine neue erzeugt.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom gibt die von RequestID gesetzte ID zurueck
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger protokolliert jede Anfrage per slog
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", RequestIDFrom(c),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			slog.Error("request", attrs...)
		case c.Writer.Status() >= 400:
			slog.Warn("request", attrs...)
		default:
			slog.Debug("request", attrs...)
		}
	}
}
