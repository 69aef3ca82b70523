// Package middleware contains HTTP middleware functions for the Spot the Same API.
// This file handles role-based access control — checking that the
// authenticated user has permission to reach the requested route.
package middleware

// roles.go — Role-based access control middleware.
// The app has two roles: admin and user. Admins can list every game and delete
// games they do not play in.

import "github.com/gofiber/fiber/v2"

// RequireRole returns a middleware handler that allows only users whose role
// matches one of the provided roles. Returns HTTP 403 Forbidden if the role
// doesn't match.
//
//	admin := api.Group("/admin", requireUser, middleware.RequireRole("admin"))
//
// RequireRole must be used AFTER RequireUser, because RequireUser is what
// populates the "userRole" value in the request context via c.Locals.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals(LocalUserRole).(string)
		if !ok || userRole == "" {
			// No role means RequireUser did not run for this route.
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}
}
