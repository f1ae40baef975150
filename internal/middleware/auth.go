// Package middleware provides HTTP middleware components for the application.
// Tokens are issued by the authentication service; this service only verifies
// them and exposes the caller identity to handlers.
package middleware

import (
	"log/slog"
	"strings"

	"vipwallet/internal/lib/sl"
	"vipwallet/internal/models"
	"vipwallet/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware handles JWT token validation.
// It extracts the JWT token from the Authorization header, validates it,
// and adds the user claims to the request context.
type AuthMiddleware struct {
	secret string
	log    *slog.Logger
}

func NewAuthMiddleware(secret string, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{secret: secret, log: log}
}

// Handler validates the bearer token and stores its claims under
// utils.ClaimsKey.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}

	// Check if the header has the Bearer prefix
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := utils.ParseToken(m.secret, tokenString)
	if err != nil {
		m.log.Debug("token rejected", slog.String("path", c.Path()), sl.Err(err))
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals(utils.ClaimsKey, claims)
	return c.Next()
}

// AdminOnly verifies that the request has valid admin claims.
func AdminOnly(c *fiber.Ctx) error {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "insufficient permissions")
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}

		// If user is admin, allow all permissions
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return utils.Forbidden(c, "insufficient permissions")
	}
}
