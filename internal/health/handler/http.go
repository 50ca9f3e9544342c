// Package handler serves readiness and liveness probes.
package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handler reports liveness and readiness of the auth server's backing stores.
type Handler struct {
	db    *sql.DB
	redis *redis.Client // may be nil when the cache mirror is disabled
}

// NewHandler returns a health handler over the given stores. redisClient may be nil.
func NewHandler(db *sql.DB, redisClient *redis.Client) *Handler {
	return &Handler{db: db, redis: redisClient}
}

// Live always reports ok; the process is up if it can serve the request.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings Postgres and, when configured, Redis. A failing durable store
// makes the service not ready; a failing cache does too, since latency
// guarantees depend on it.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}
