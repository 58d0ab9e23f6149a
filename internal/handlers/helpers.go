package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/elitedecor/backend/internal/middleware"
)

func getAuthEmail(c *fiber.Ctx) (string, error) {
	v := c.Locals("email")
	if v == nil {
		return "", fmt.Errorf("unauthorized")
	}
	email, ok := v.(string)
	if !ok || email == "" {
		return "", fmt.Errorf("unauthorized")
	}
	return email, nil
}

func paramEmail(c *fiber.Ctx, name string) string {
	return strings.ToLower(strings.TrimSpace(c.Params(name)))
}

// storedRoleIsAdmin re-checks the caller's role from storage. Token
// roles go stale between issue and use; a demoted admin must lose
// admin power immediately, not when the token expires.
func storedRoleIsAdmin(c *fiber.Ctx, src middleware.RoleSource) bool {
	email, err := getAuthEmail(c)
	if err != nil {
		return false
	}
	role, err := src.RoleByEmail(c.Context(), email)
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(role)) == "admin"
}
