package handlers

import (
	"net/http"
	"testing"

	"github.com/elitedecor/backend/internal/models"
)

func seedCatalog(t *testing.T, env *testEnv) {
	t.Helper()
	for _, s := range []models.Service{
		{Name: "Wedding Decoration", Category: "wedding", Cost: 800},
		{Name: "Birthday Decoration", Category: "party", Cost: 150},
		{Name: "Corporate Event Styling", Category: "corporate", Cost: 1200},
		{Name: "Baby Shower Decoration", Category: "party", Cost: 220},
	} {
		svc := s
		if err := env.DB.Create(&svc).Error; err != nil {
			t.Fatalf("seed service: %v", err)
		}
	}
}

func listNames(t *testing.T, out map[string]interface{}) []string {
	t.Helper()
	items, ok := out["data"].([]interface{})
	if !ok {
		t.Fatalf("data = %T", out["data"])
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.(map[string]interface{})["name"].(string))
	}
	return names
}

func TestServiceCatalog(t *testing.T) {
	env := newTestEnv(t, "")
	seedCatalog(t, env)

	t.Run("search filters by name", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodGet, "/api/services?q=decoration", "", nil)
		wantStatus(t, resp, out, http.StatusOK)
		if names := listNames(t, out); len(names) != 3 {
			t.Errorf("names = %v, want the three decorations", names)
		}
	})

	t.Run("category and price range combine", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodGet, "/api/services?cat=party&min=200", "", nil)
		wantStatus(t, resp, out, http.StatusOK)
		names := listNames(t, out)
		if len(names) != 1 || names[0] != "Baby Shower Decoration" {
			t.Errorf("names = %v", names)
		}
	})

	t.Run("price_low sorts ascending", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodGet, "/api/services?sort=price_low", "", nil)
		wantStatus(t, resp, out, http.StatusOK)
		names := listNames(t, out)
		if names[0] != "Birthday Decoration" || names[len(names)-1] != "Corporate Event Styling" {
			t.Errorf("order = %v", names)
		}
	})

	t.Run("pagination reports totals", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodGet, "/api/services?limit=2&page=2", "", nil)
		wantStatus(t, resp, out, http.StatusOK)

		meta := out["meta"].(map[string]interface{})
		if meta["total_items"] != 4.0 || meta["total_pages"] != 2.0 {
			t.Errorf("meta = %v", meta)
		}
		if len(listNames(t, out)) != 2 {
			t.Errorf("page size = %d", len(listNames(t, out)))
		}
	})

	t.Run("categories are distinct", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodGet, "/api/services/categories", "", nil)
		wantStatus(t, resp, out, http.StatusOK)
		cats, ok := out["data"].([]interface{})
		if !ok || len(cats) != 3 {
			t.Errorf("categories = %v, want 3 distinct", out["data"])
		}
	})
}

func TestServiceAdminCRUD(t *testing.T) {
	env := newTestEnv(t, "")
	admin := seedUser(t, env.DB, "admin@example.com", models.RoleAdmin)
	user := seedUser(t, env.DB, "user@example.com", models.RoleUser)

	t.Run("a plain user cannot create services", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodPost, "/api/services", tokenFor(t, user),
			map[string]interface{}{"name": "Hacked", "cost": 1})
		wantStatus(t, resp, out, http.StatusForbidden)
	})

	var createdID string

	t.Run("admin creates a service", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodPost, "/api/services", tokenFor(t, admin),
			map[string]interface{}{
				"name":        "Garden Party Decoration",
				"category":    "party",
				"cost":        340,
				"description": "Outdoor setup with florals",
			})
		wantStatus(t, resp, out, http.StatusCreated)
		createdID = dataMap(t, out)["id"].(string)
	})

	t.Run("anyone can read it back", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodGet, "/api/services/"+createdID, "", nil)
		wantStatus(t, resp, out, http.StatusOK)
		if dataMap(t, out)["name"] != "Garden Party Decoration" {
			t.Errorf("name = %v", dataMap(t, out)["name"])
		}
	})

	t.Run("admin updates the cost", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodPut, "/api/services/"+createdID, tokenFor(t, admin),
			map[string]interface{}{
				"name":     "Garden Party Decoration",
				"category": "party",
				"cost":     390,
			})
		wantStatus(t, resp, out, http.StatusOK)

		var got models.Service
		env.DB.First(&got, "id = ?", createdID)
		if got.Cost != 390 {
			t.Errorf("cost = %v", got.Cost)
		}
	})

	t.Run("admin deletes it", func(t *testing.T) {
		resp, out := doJSON(t, env.App, http.MethodDelete, "/api/services/"+createdID, tokenFor(t, admin), nil)
		wantStatus(t, resp, out, http.StatusOK)

		var count int64
		env.DB.Model(&models.Service{}).Where("id = ?", createdID).Count(&count)
		if count != 0 {
			t.Error("service row still present")
		}
	})
}
