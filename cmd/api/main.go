package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/elitedecor/backend/internal/config"
	"github.com/elitedecor/backend/internal/db"
	"github.com/elitedecor/backend/internal/handlers"
	"github.com/elitedecor/backend/internal/middleware"
	"github.com/elitedecor/backend/internal/models"
	"github.com/elitedecor/backend/internal/realtime"
	"github.com/elitedecor/backend/internal/services/checkout"
	"github.com/elitedecor/backend/internal/services/roles"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis unavailable, role cache disabled:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(&models.User{}, &models.DecoratorProfile{},
		&models.Service{}, &models.Booking{}, &models.Payment{}); err != nil {
		log.Fatal(err)
	}

	roleSvc := roles.NewRoleService(gdb, rdb)
	checkoutSvc := checkout.NewCheckoutService()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	serviceH := handlers.NewServiceHandler(gdb)
	userH := handlers.NewUserHandler(gdb, roleSvc)
	bookingH := handlers.NewBookingHandler(gdb, roleSvc, hub)
	paymentH := handlers.NewPaymentHandler(gdb, checkoutSvc, hub)
	adminH := handlers.NewAdminHandler(gdb, roleSvc, hub)
	decoratorH := handlers.NewDecoratorHandler(gdb, hub)
	eventsH := handlers.NewEventsHandler(hub, cfg.JWTSecret)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/services", serviceH.ListPublic)
	api.Get("/services/categories", serviceH.GetCategories)
	api.Get("/services/:id", serviceH.GetOne)
	api.Get("/decorators/top", userH.TopDecorators)

	// provider callback authenticates via HMAC signature, not JWT
	api.Post("/payments/callback", paymentH.HandleCallback)

	// protected (JWT)
	protected := api.Group("/",
		middleware.JWTFromBearer(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", userH.Me)
	protected.Post("/users", userH.Create)
	protected.Get("/users/:email", userH.GetByEmail)
	protected.Get("/users/:email/role", userH.GetRole)

	protected.Post("/bookings", bookingH.Create)
	protected.Get("/bookings/user/:email",
		middleware.RequireOwnEmail("email"),
		bookingH.ListByUser,
	)
	protected.Get("/bookings/:id", bookingH.GetOne)
	protected.Patch("/bookings/:id", bookingH.Patch)
	protected.Delete("/bookings/:id", bookingH.Delete)

	protected.Post("/create-checkout-session", paymentH.CreateCheckoutSession)
	protected.Post("/verify-payment", paymentH.VerifyPayment)
	protected.Get("/payments/user/:email",
		middleware.RequireOwnEmail("email"),
		paymentH.ListByUser,
	)

	// admin only: role is re-checked against storage on every request
	admin := protected.Group("/admin", middleware.RequireRoles(roleSvc, string(models.RoleAdmin)))

	admin.Get("/bookings", adminH.ListBookings)
	admin.Get("/users", adminH.ListUsers)
	admin.Patch("/users/:email/make-decorator", adminH.MakeDecorator)
	admin.Patch("/users/:email/demote-decorator", adminH.DemoteDecorator)
	admin.Get("/decorators/active", adminH.ActiveDecorators)
	admin.Patch("/bookings/:id/assign-decorator", adminH.AssignDecorator)

	protected.Post("/services",
		middleware.RequireRoles(roleSvc, string(models.RoleAdmin)),
		serviceH.Create,
	)
	protected.Put("/services/:id",
		middleware.RequireRoles(roleSvc, string(models.RoleAdmin)),
		serviceH.Update,
	)
	protected.Delete("/services/:id",
		middleware.RequireRoles(roleSvc, string(models.RoleAdmin)),
		serviceH.Delete,
	)

	// decorator only
	decorator := protected.Group("/decorator",
		middleware.RequireRoles(roleSvc, string(models.RoleDecorator), string(models.RoleAdmin)),
	)

	decorator.Get("/bookings/:email",
		middleware.RequireOwnEmail("email"),
		decoratorH.ListBookings,
	)
	decorator.Patch("/bookings/:id/status", decoratorH.UpdateProjectStatus)
	decorator.Get("/earnings/:email",
		middleware.RequireOwnEmail("email"),
		decoratorH.Earnings,
	)

	// WebSocket endpoint (no JWT middleware, token travels as query param)
	app.Get("/ws/events", websocket.New(eventsH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
