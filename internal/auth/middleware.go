package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/safecity/backend/internal/models"
)

const claimsKey = "claims"

// Middleware verifies the bearer token and stores the claims in ctx locals.
func Middleware(v *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := ParseBearerToken(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "missing authorization"})
		}
		claims, err := v.Verify(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid token"})
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed set. Must run
// after Middleware.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil || !allowed[claims.UserRole()] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "forbidden"})
		}
		return c.Next()
	}
}

func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsKey).(*Claims)
	return claims
}
