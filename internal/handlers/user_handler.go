package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/elitedecor/backend/internal/middleware"
	"github.com/elitedecor/backend/internal/models"
)

type UserHandler struct {
	DB    *gorm.DB
	Roles middleware.RoleSource
}

func NewUserHandler(db *gorm.DB, roleSource middleware.RoleSource) *UserHandler {
	return &UserHandler{DB: db, Roles: roleSource}
}

type CreateUserReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Create registers the verified identity in the user store. Repeat
// calls for an existing email are a no-op that answers with a message
// instead of an error, so clients can call it on every sign-in.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	authEmail, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateUserReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = authEmail
	}
	if email != authEmail {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Cannot create a user for another identity",
		})
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "User already exists",
			"data":    fiber.Map{"id": existing.ID, "email": existing.Email},
		})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	u := models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: email,
		Role:  models.RoleUser,
	}

	if err := h.DB.Create(&u).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create user",
		})
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"data":    u,
	})
}

func (h *UserHandler) GetByEmail(c *fiber.Ctx) error {
	authEmail, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	email := paramEmail(c, "email")
	if email != authEmail && !storedRoleIsAdmin(c, h.Roles) {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}

	var u models.User
	if err := h.DB.Preload("DecoratorProfile").Where("email = ?", email).First(&u).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    u,
	})
}

func (h *UserHandler) GetRole(c *fiber.Ctx) error {
	authEmail, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	email := paramEmail(c, "email")
	if email != authEmail && !storedRoleIsAdmin(c, h.Roles) {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"role": u.Role},
	})
}

// TopDecorators is the public landing-page ranking: active decorators
// by rating.
func (h *UserHandler) TopDecorators(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 6)
	if limit < 1 || limit > 50 {
		limit = 6
	}

	var users []models.User
	err := h.DB.
		Joins("JOIN decorator_profiles dp ON dp.user_id = users.id").
		Where("users.role = ?", models.RoleDecorator).
		Where("dp.status = ?", models.DecoratorActive).
		Order("dp.rating DESC").
		Limit(limit).
		Preload("DecoratorProfile").
		Find(&users).Error

	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch decorators",
		})
	}

	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		m := fiber.Map{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
		}
		if u.DecoratorProfile != nil {
			m["rating"] = u.DecoratorProfile.Rating
			m["specialties"] = u.DecoratorProfile.Specialties
			m["experience"] = u.DecoratorProfile.Experience
			m["completed_projects"] = u.DecoratorProfile.CompletedProjects
			m["bio"] = u.DecoratorProfile.Bio
			m["availability"] = u.DecoratorProfile.Availability
		}
		out = append(out, m)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// Me returns the signed-in user.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	email, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var u models.User
	if err := h.DB.Preload("DecoratorProfile").Where("email = ?", email).First(&u).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
			"role":  u.Role,
		},
	})
}
