// routes.go - HTTP-Router und Fehlerabbildung
// Enthaelt: Server, GenerateRoutes(), abortWithError(), errorStatus()

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sasview/sasmodels/core"
	"github.com/sasview/sasmodels/envconfig"
	"github.com/sasview/sasmodels/kernel"
	"github.com/sasview/sasmodels/middleware"
	"github.com/sasview/sasmodels/model"
)

// Server bedient die HTTP-API ueber einer Engine
type Server struct {
	addr   net.Addr
	engine *core.Engine
}

// New erzeugt einen Server fuer engine; addr darf nil sein
func New(addr net.Addr, engine *core.Engine) *Server {
	return &Server{addr: addr, engine: engine}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
		middleware.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
	)

	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "sasmodels is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "sasmodels is running") })

	// Modelle
	r.GET("/api/models", s.ListHandler)
	r.GET("/api/models/:name", s.ShowHandler)

	// Backends
	r.GET("/api/backends", s.BackendsHandler)

	// Auswertung
	r.POST("/api/eval", s.EvalHandler)
	r.POST("/api/radius", s.RadiusHandler)
	r.POST("/api/source", s.SourceHandler)
	r.POST("/api/test", s.TestHandler)

	return r
}

// =============================================================================
// Fehlerbehandlung
// =============================================================================

// errBadRequest markiert Fehler in der Anfrage selbst
var errBadRequest = errors.New("bad request")

type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() []error {
	return []error{errBadRequest, e.err}
}

func invalid(err error) error {
	return badRequest{err}
}

// errorStatus bildet Fehler der Engine auf HTTP-Status ab
func errorStatus(err error) int {
	var derr *model.DescriptorError
	var berr *core.BackendUnavailableError
	var eerr *kernel.EvaluationError
	var perr *kernel.PrecisionError

	switch {
	case errors.Is(err, model.ErrUnknownModel):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.As(err, &derr):
		return http.StatusBadRequest
	case errors.As(err, &berr), errors.As(err, &perr):
		return http.StatusServiceUnavailable
	case errors.As(err, &eerr), errors.Is(err, core.ErrNoEffectiveRadius):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "request_id", middleware.RequestIDFrom(c), "error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
