package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dexscreener_stream/dexscreener"
	"dexscreener_stream/middleware"
	"dexscreener_stream/models"
	"dexscreener_stream/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Records is the read side used by the query endpoints.
type Records interface {
	GetOne(ctx context.Context, address string) (models.Record, error)
	GetAll(ctx context.Context) ([]models.Record, error)
}

type Handler struct {
	records Records
	stream  http.HandlerFunc
	health  *monitoring.Registry
	log     *zap.SugaredLogger
}

func NewHandler(records Records, stream http.HandlerFunc, health *monitoring.Registry, log *zap.SugaredLogger) *Handler {
	return &Handler{records: records, stream: stream, health: health, log: log}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(h.log), middleware.Recover(h.log))
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/token/:address", h.GetToken)
	r.GET("/tokens/", h.GetTokens)
	r.GET("/ws/", h.Stream)
	r.GET("/ws/tokens/", h.Stream)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) GetToken(c *gin.Context) {
	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	rec, err := h.records.GetOne(c.Request.Context(), address)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetTokens(c *gin.Context) {
	records, err := h.records.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) Stream(c *gin.Context) {
	h.stream(c.Writer, c.Request)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.health.Status(c.Request.Context()))
}

// fail maps feed errors onto HTTP statuses. A malformed feed response is
// reported to the caller the same way as an unreachable one.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, dexscreener.ErrNotFound):
		status, msg = http.StatusNotFound, "token not found"
	case errors.Is(err, dexscreener.ErrUnavailable), errors.Is(err, dexscreener.ErrMalformed):
		status, msg = http.StatusBadGateway, "upstream unavailable"
	}

	h.log.Warnw("Request failed",
		"request_id", c.GetString(middleware.RequestIDKey),
		"path", c.Request.URL.Path,
		"status", status,
		"error", err)
	c.JSON(status, gin.H{"error": msg})
}
