package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/elitedecor/backend/internal/middleware"
	"github.com/elitedecor/backend/internal/models"
	"github.com/elitedecor/backend/internal/realtime"
	"github.com/elitedecor/backend/internal/services/checkout"
	"github.com/elitedecor/backend/internal/services/roles"
	"github.com/elitedecor/backend/internal/utils"
)

const testJWTSecret = "handler-test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.DecoratorProfile{},
		&models.Service{}, &models.Booking{}, &models.Payment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testEnv struct {
	DB  *gorm.DB
	App *fiber.App
	Hub *realtime.Hub
}

// newTestEnv wires the full route surface against an in-memory
// database. providerURL, when non-empty, points the checkout service
// at a fake payment provider.
func newTestEnv(t *testing.T, providerURL string) *testEnv {
	t.Helper()

	db := newTestDB(t)
	hub := realtime.NewHub()
	roleSvc := roles.NewRoleService(db, nil)

	checkoutSvc := &checkout.CheckoutService{
		Client:       &http.Client{Timeout: time.Second},
		APIKey:       "test-api-key",
		PrivateKey:   "test-private-key",
		MerchantCode: "ED001",
		BaseURL:      providerURL,
		CallbackURL:  "http://localhost:8080/api/payments/callback",
		ReturnURL:    "http://localhost:3000/dashboard/payment-result",
	}

	authH := &AuthHandler{DB: db, JWTSecret: testJWTSecret, Expires: 60}
	serviceH := NewServiceHandler(db)
	userH := NewUserHandler(db, roleSvc)
	bookingH := NewBookingHandler(db, roleSvc, hub)
	paymentH := NewPaymentHandler(db, checkoutSvc, hub)
	adminH := NewAdminHandler(db, roleSvc, hub)
	decoratorH := NewDecoratorHandler(db, hub)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api := app.Group("/api")

	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/services", serviceH.ListPublic)
	api.Get("/services/categories", serviceH.GetCategories)
	api.Get("/services/:id", serviceH.GetOne)
	api.Get("/decorators/top", userH.TopDecorators)
	api.Post("/payments/callback", paymentH.HandleCallback)

	protected := api.Group("/",
		middleware.JWTFromBearer(testJWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", userH.Me)
	protected.Post("/users", userH.Create)
	protected.Get("/users/:email", userH.GetByEmail)
	protected.Get("/users/:email/role", userH.GetRole)

	protected.Post("/bookings", bookingH.Create)
	protected.Get("/bookings/user/:email",
		middleware.RequireOwnEmail("email"), bookingH.ListByUser)
	protected.Get("/bookings/:id", bookingH.GetOne)
	protected.Patch("/bookings/:id", bookingH.Patch)
	protected.Delete("/bookings/:id", bookingH.Delete)

	protected.Post("/create-checkout-session", paymentH.CreateCheckoutSession)
	protected.Post("/verify-payment", paymentH.VerifyPayment)
	protected.Get("/payments/user/:email",
		middleware.RequireOwnEmail("email"), paymentH.ListByUser)

	admin := protected.Group("/admin",
		middleware.RequireRoles(roleSvc, string(models.RoleAdmin)))
	admin.Get("/bookings", adminH.ListBookings)
	admin.Get("/users", adminH.ListUsers)
	admin.Patch("/users/:email/make-decorator", adminH.MakeDecorator)
	admin.Patch("/users/:email/demote-decorator", adminH.DemoteDecorator)
	admin.Get("/decorators/active", adminH.ActiveDecorators)
	admin.Patch("/bookings/:id/assign-decorator", adminH.AssignDecorator)

	protected.Post("/services",
		middleware.RequireRoles(roleSvc, string(models.RoleAdmin)), serviceH.Create)
	protected.Put("/services/:id",
		middleware.RequireRoles(roleSvc, string(models.RoleAdmin)), serviceH.Update)
	protected.Delete("/services/:id",
		middleware.RequireRoles(roleSvc, string(models.RoleAdmin)), serviceH.Delete)

	decorator := protected.Group("/decorator",
		middleware.RequireRoles(roleSvc, string(models.RoleDecorator), string(models.RoleAdmin)))
	decorator.Get("/bookings/:email",
		middleware.RequireOwnEmail("email"), decoratorH.ListBookings)
	decorator.Patch("/bookings/:id/status", decoratorH.UpdateProjectStatus)
	decorator.Get("/earnings/:email",
		middleware.RequireOwnEmail("email"), decoratorH.Earnings)

	return &testEnv{DB: db, App: app, Hub: hub}
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatal(err)
	}
	user := models.User{
		Name:     "Test " + email,
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.SignJWT(testJWTSecret, user.ID.String(), user.Email, string(user.Role), 60)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

// doJSON fires a request at the test app and decodes the JSON envelope.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	return resp, out
}

func dataMap(t *testing.T, out map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := out["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object: %v", out["data"], out)
	}
	return data
}

func wantStatus(t *testing.T, resp *http.Response, out map[string]interface{}, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status = %d, want %d (body: %v)", resp.StatusCode, want, out)
	}
}

func bookingPath(id interface{}) string {
	return fmt.Sprintf("/api/bookings/%v", id)
}
