package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type dependency struct {
	name string
	ping Pinger
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler creates a HealthHandler that checks the database pool.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{deps: []dependency{{name: "database", ping: db}}}
}

// With adds another dependency to the check, such as the token store.
func (h *HealthHandler) With(name string, p Pinger) *HealthHandler {
	h.deps = append(h.deps, dependency{name: name, ping: p})
	return h
}

// Check pings every dependency in order.
// Returns 200 OK with {"status": "healthy"} when all are reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "<name> connection failed"}
// naming the first one that is not.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	for _, d := range h.deps {
		if err := d.ping.Ping(c.Context()); err != nil {
			log.Error().Err(err).Str("dependency", d.name).Msg("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  d.name + " connection failed",
			})
		}
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}
