package handlers

import (
	"errors"
	"log"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitedecor/backend/internal/models"
	"github.com/elitedecor/backend/internal/realtime"
	"github.com/elitedecor/backend/internal/services/lifecycle"
)

type DecoratorHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

func NewDecoratorHandler(db *gorm.DB, hub *realtime.Hub) *DecoratorHandler {
	return &DecoratorHandler{DB: db, Hub: hub}
}

// ListBookings returns the bookings assigned to this decorator. The
// ownership check runs in route middleware.
func (h *DecoratorHandler) ListBookings(c *fiber.Ctx) error {
	email := paramEmail(c, "email")

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	q := h.DB.Model(&models.Booking{}).Where("assigned_decorator_email = ?", email)

	if status := c.Query("status"); status != "" {
		q = q.Where("project_status = ?", status)
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

type UpdateProjectStatusReq struct {
	Status string `json:"status"`
}

// UpdateProjectStatus advances the fulfilment track. Only the assigned
// decorator may move it, and only along the legal transitions.
func (h *DecoratorHandler) UpdateProjectStatus(c *fiber.Ctx) error {
	email, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid booking ID",
		})
	}

	var req UpdateProjectStatusReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	status, err := lifecycle.ParseProjectStatus(req.Status)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Booking not found",
		})
	}

	if booking.AssignedDecoratorEmail == nil || *booking.AssignedDecoratorEmail != email {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Only the assigned decorator can update this booking",
		})
	}

	if err := lifecycle.Apply(&booking, lifecycle.SetProjectStatus{Status: status}); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update status",
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		if status == models.ProjectCompleted {
			// completed-project counter feeds the public ranking
			return tx.Model(&models.DecoratorProfile{}).
				Where("user_id IN (?)", tx.Model(&models.User{}).Select("id").Where("email = ?", email)).
				Update("completed_projects", gorm.Expr("completed_projects + 1")).Error
		}
		return nil
	})
	if err != nil {
		log.Println("Error updating project status:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update status",
		})
	}

	h.Hub.BookingEvent(booking.UserEmail, booking.AssignedDecoratorEmail, fiber.Map{
		"type":    "project_status_update",
		"booking": booking,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    booking,
	})
}

func summarizeEarnings(bookings []models.Booking) (total float64, count int) {
	for _, b := range bookings {
		total += b.TotalCost
		count++
	}
	return total, count
}

// Earnings sums total_cost over this decorator's completed, paid
// bookings. An empty match set answers zeros, not an error.
func (h *DecoratorHandler) Earnings(c *fiber.Ctx) error {
	email := paramEmail(c, "email")

	var bookings []models.Booking
	err := h.DB.
		Where("assigned_decorator_email = ?", email).
		Where("project_status = ?", models.ProjectCompleted).
		Where("paid = ?", true).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch earnings",
		})
	}

	total, count := summarizeEarnings(bookings)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_earnings": total,
			"total_projects": count,
			"bookings":       bookings,
		},
	})
}
