package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type probe struct {
	name   string
	target Pinger
}

type probeResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// HealthHandler serves /health/live and /health/ready.
type HealthHandler struct {
	service string
	version string
	probes  []probe
}

// NewHealthHandler checks postgres and redis on readiness. A nil dependency is reported as disabled.
func NewHealthHandler(service, version string, postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{
		service: service,
		version: version,
		probes:  []probe{{"postgres", postgres}, {"redis", redis}},
	}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive", "service": h.service, "version": h.version})
}

// Ready answers 503 when any enabled dependency fails its ping.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	results := make(map[string]probeResult, len(h.probes))
	healthy := true
	for _, p := range h.probes {
		res := check(ctx, p.target)
		if res.Status == "down" {
			healthy = false
		}
		results[p.name] = res
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": results,
			},
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": results})
}

func check(ctx context.Context, target Pinger) probeResult {
	if target == nil {
		return probeResult{Status: "disabled"}
	}
	start := time.Now()
	err := target.Ping(ctx)
	res := probeResult{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		res.Status = "down"
		res.Error = err.Error()
	}
	return res
}
