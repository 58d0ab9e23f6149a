package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RoleSource resolves the current role for an email from storage. Roles
// change out-of-band (admin promotes/demotes), so protected routes
// re-check storage instead of trusting the role baked into the token.
type RoleSource interface {
	RoleByEmail(ctx context.Context, email string) (string, error)
}

func RequireRoles(src RoleSource, allowed ...string) fiber.Handler {
	allowedSet := map[string]bool{}
	for _, r := range allowed {
		allowedSet[strings.ToLower(r)] = true
	}

	return func(c *fiber.Ctx) error {
		email, ok := c.Locals("email").(string)
		if !ok || email == "" {
			return fiber.ErrUnauthorized
		}

		role, err := src.RoleByEmail(c.Context(), email)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: unknown user")
		}

		role = strings.ToLower(strings.TrimSpace(role))
		if !allowedSet[role] {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: insufficient role")
		}

		c.Locals("storedRole", role)
		return c.Next()
	}
}

// RequireOwnEmail rejects requests whose path email parameter does not
// match the verified identity.
func RequireOwnEmail(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, ok := c.Locals("email").(string)
		if !ok || email == "" {
			return fiber.ErrUnauthorized
		}

		pathEmail := strings.ToLower(strings.TrimSpace(c.Params(param)))
		if pathEmail == "" || pathEmail != email {
			return fiber.NewError(fiber.StatusForbidden, "forbidden: not your resource")
		}

		return c.Next()
	}
}
