package handlers

import (
	"net/http"
	"testing"

	"github.com/elitedecor/backend/internal/models"
)

// Errors raised by middleware never reach the handler bodies, so the
// app-level error handler is what keeps the JSON envelope uniform.
func TestErrorsUseJSONEnvelope(t *testing.T) {
	env := newTestEnv(t, "")

	t.Run("missing token answers a JSON envelope", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodGet, "/api/me", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
		if out["success"] != false {
			t.Errorf("success = %v, want false", out["success"])
		}
		if msg, _ := out["message"].(string); msg == "" {
			t.Error("message is empty")
		}
	})

	t.Run("role rejection answers a JSON envelope", func(t *testing.T) {
		user := seedUser(t, env.DB, "plain@example.com", models.RoleUser)

		resp, out := doJSON(t, env.App, http.MethodGet, "/api/admin/bookings", tokenFor(t, user), nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", resp.StatusCode)
		}
		if out["success"] != false {
			t.Errorf("success = %v, want false", out["success"])
		}
	})
}
