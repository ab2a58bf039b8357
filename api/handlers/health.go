package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports if a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and metrics endpoints.
type HealthHandler struct {
	store    Pinger
	gatherer prometheus.Gatherer
}

// NewHealthHandler creates a new instance of the health handler.
func NewHealthHandler(store Pinger, gatherer prometheus.Gatherer) *HealthHandler {
	return &HealthHandler{store: store, gatherer: gatherer}
}

// Healthz reports 503 while the store is unreachable.
func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Metrics exposes the registry in the prometheus text format.
func (h *HealthHandler) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
