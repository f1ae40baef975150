package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CacheHealth is the subset of the cache service used by health checks.
type CacheHealth interface {
	HealthCheck(ctx context.Context) error
	GetStats() *redis.PoolStats
}

type HealthHandler struct {
	db      Pinger
	cache   CacheHealth
	version string
}

func NewHealthHandler(db Pinger, cache CacheHealth, version string) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, version: version}
}

// HealthCheck reports 503 when the database is unreachable. Redis only backs
// read caches and idempotency keys, so its failure degrades the status.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := fiber.StatusOK
	services := fiber.Map{"database": "connected", "redis": "connected"}

	if err := h.db.PingContext(ctx); err != nil {
		status = "unavailable"
		code = fiber.StatusServiceUnavailable
		services["database"] = "disconnected"
	}
	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			services["redis"] = "disconnected"
			if code == fiber.StatusOK {
				status = "degraded"
			}
		}
	} else {
		services["redis"] = "disabled"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"version":  h.version,
		"services": services,
	})
}

func (h *HealthHandler) CacheStats(c *fiber.Ctx) error {
	if h.cache == nil {
		return c.JSON(fiber.Map{"pool_stats": nil})
	}
	poolStats := h.cache.GetStats()

	return c.JSON(fiber.Map{
		"pool_stats": fiber.Map{
			"hits":        poolStats.Hits,
			"misses":      poolStats.Misses,
			"timeouts":    poolStats.Timeouts,
			"total_conns": poolStats.TotalConns,
			"idle_conns":  poolStats.IdleConns,
			"stale_conns": poolStats.StaleConns,
		},
	})
}
