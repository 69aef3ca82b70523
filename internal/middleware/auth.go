// Package middleware contains HTTP middleware functions for the Spot the Same API.
// Middleware sits between the HTTP server and route handlers — it runs on every
// request that passes through it, making it the right place for cross-cutting
// concerns like authentication and role checks.
package middleware

import (
	"errors"
	"strings"

	// fiber is the HTTP framework; fiber.Handler is the function signature for middleware
	"github.com/gofiber/fiber/v2"
	// jwt parses and verifies the JSON Web Token sent in the Authorization header
	"github.com/golang-jwt/jwt/v5"
	"github.com/trentd187/spot-the-same/internal/config"
	"github.com/trentd187/spot-the-same/internal/models"
	"gorm.io/gorm"
)

// Context keys written by this package. Handlers read them with c.Locals.
const (
	LocalClaims   = "claims"   // *Claims, set by Identify
	LocalUserID   = "userID"   // user UUID as a string, set by RequireUser
	LocalUserRole = "userRole" // models.UserRole as a string, set by RequireUser
)

// ErrNotRegistered is the error code sent when a valid identity has no user row yet.
const ErrNotRegistered = "NOT_REGISTERED"

// Claims is the identity token payload issued by the auth provider.
//
//	"sub":     stable provider user ID (required)
//	"email":   primary email address (required for sign-up)
//	"name":    display name (optional)
//	"picture": avatar URL (optional)
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT fields: Subject, ExpiresAt, IssuedAt, etc.
	Email                string `json:"email"`
	Name                 string `json:"name"`
	Picture              string `json:"picture"`
}

// Identify returns a middleware that verifies the bearer token and stores its
// claims in c.Locals(LocalClaims). It does not touch the database, so it is the
// only check in front of sign-up.
//
// Browsers cannot set headers on an EventSource, so the token is also accepted
// from the access_token query parameter.
func Identify(cfg *config.Config) fiber.Handler {
	secret := []byte(cfg.JWTSecret)

	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}

		// Never verify against an empty key.
		if len(secret) == 0 {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "token verification is not configured",
			})
		}

		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// RequireUser returns a middleware that resolves the verified identity to a
// registered user. It must run after Identify. Unknown identities get 403 with
// code NOT_REGISTERED: users are never created implicitly, they sign up first.
func RequireUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(LocalClaims).(*Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthenticated",
			})
		}

		user, err := FindUser(db, claims)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "user not registered",
				"code":  ErrNotRegistered,
			})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "database error",
			})
		}

		// c.Locals is a key-value store scoped to this single request.
		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserRole, string(user.Role))

		return c.Next()
	}
}

// ParseToken verifies an HS256 token and returns its claims. Tokens without a
// subject are rejected.
func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}
	return claims, nil
}

// FindUser looks the identity up by provider subject, then by email for rows
// created before the subject was recorded.
func FindUser(db *gorm.DB, claims *Claims) (*models.User, error) {
	var user models.User
	err := db.Where("external_id = ?", claims.Subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && claims.Email != "" {
		err = db.Where("email = ?", claims.Email).First(&user).Error
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// bearerToken reads "Authorization: Bearer <token>", falling back to ?access_token=.
func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("access_token")
}
