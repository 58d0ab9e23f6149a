package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/elitedecor/backend/internal/models"
	"github.com/elitedecor/backend/internal/realtime"
	"github.com/elitedecor/backend/internal/services/lifecycle"
	"github.com/elitedecor/backend/internal/services/roles"
)

type AdminHandler struct {
	DB    *gorm.DB
	Roles *roles.RoleService
	Hub   *realtime.Hub
}

func NewAdminHandler(db *gorm.DB, roleService *roles.RoleService, hub *realtime.Hub) *AdminHandler {
	return &AdminHandler{DB: db, Roles: roleService, Hub: hub}
}

func (h *AdminHandler) ListBookings(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	q := h.DB.Model(&models.Booking{})

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if paid := c.Query("paid"); paid == "true" {
		q = q.Where("paid = ?", true)
	} else if paid == "false" {
		q = q.Where("paid = ?", false)
	}

	var total int64
	q.Count(&total)

	var bookings []models.Booking
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&bookings).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch bookings",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    bookings,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.DB.Preload("DecoratorProfile").Order("created_at DESC").Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

type MakeDecoratorReq struct {
	Specialties []string `json:"specialties"`
	Experience  string   `json:"experience"`
	Bio         string   `json:"bio"`
}

// MakeDecorator upgrades a user to the decorator role and attaches a
// profile. Role change and profile write go together or not at all.
func (h *AdminHandler) MakeDecorator(c *fiber.Ctx) error {
	email := paramEmail(c, "email")

	var req MakeDecoratorReq
	if err := c.BodyParser(&req); err != nil {
		// profile details are optional; an empty body is fine
		req = MakeDecoratorReq{}
	}

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if user.Role == models.RoleDecorator {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "User is already a decorator",
		})
	}

	specialtiesJSON, _ := json.Marshal(req.Specialties)

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("role", models.RoleDecorator).Error; err != nil {
			return err
		}

		profile := models.DecoratorProfile{
			UserID:       user.ID,
			Specialties:  datatypes.JSON(specialtiesJSON),
			Experience:   req.Experience,
			Bio:          req.Bio,
			Status:       models.DecoratorActive,
			Availability: true,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		log.Println("Error promoting user:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to promote user",
		})
	}

	h.Roles.Invalidate(c.Context(), email)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "User promoted to decorator",
	})
}

// DemoteDecorator restores role=user and clears the decorator profile.
func (h *AdminHandler) DemoteDecorator(c *fiber.Ctx) error {
	email := paramEmail(c, "email")

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if user.Role != models.RoleDecorator {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "User is not a decorator",
		})
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("role", models.RoleUser).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.DecoratorProfile{}).Error
	})
	if err != nil {
		log.Println("Error demoting user:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to demote user",
		})
	}

	h.Roles.Invalidate(c.Context(), email)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Decorator demoted to user",
	})
}

func (h *AdminHandler) ActiveDecorators(c *fiber.Ctx) error {
	var users []models.User
	err := h.DB.
		Joins("JOIN decorator_profiles dp ON dp.user_id = users.id").
		Where("users.role = ?", models.RoleDecorator).
		Where("dp.status = ?", models.DecoratorActive).
		Preload("DecoratorProfile").
		Find(&users).Error

	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch decorators",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
	})
}

type AssignDecoratorReq struct {
	DecoratorEmail string `json:"decorator_email"`
}

// AssignDecorator attaches a decorator to a paid booking and confirms
// it. Unpaid bookings are rejected and left untouched.
func (h *AdminHandler) AssignDecorator(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid booking ID",
		})
	}

	var req AssignDecoratorReq
	if err := c.BodyParser(&req); err != nil || req.DecoratorEmail == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Decorator email is required",
		})
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Booking not found",
		})
	}

	var decorator models.User
	if err := h.DB.Where("email = ? AND role = ?", req.DecoratorEmail, models.RoleDecorator).
		First(&decorator).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Decorator not found",
		})
	}

	cmd := lifecycle.AssignDecorator{Email: decorator.Email, Name: decorator.Name}
	if err := lifecycle.Apply(&booking, cmd); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to assign decorator",
		})
	}

	if err := h.DB.Save(&booking).Error; err != nil {
		log.Println("Error assigning decorator:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to assign decorator",
		})
	}

	h.Hub.BookingEvent(booking.UserEmail, booking.AssignedDecoratorEmail, fiber.Map{
		"type":    "booking_assigned",
		"booking": booking,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    booking,
	})
}
