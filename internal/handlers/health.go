// Package handlers contains the HTTP route handler functions for the Spot the Same API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling into the game service, and writing a response.
package handlers

import "github.com/gofiber/fiber/v2"

// HealthCheck handles GET /health.
// It returns a simple JSON response indicating the server is alive and reachable.
// This endpoint is intentionally lightweight — no database queries, no authentication.
// Container health checks and load balancers poll it.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
