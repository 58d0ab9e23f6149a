package handlers

import (
	"errors"
	"log"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitedecor/backend/internal/middleware"
	"github.com/elitedecor/backend/internal/models"
	"github.com/elitedecor/backend/internal/realtime"
	"github.com/elitedecor/backend/internal/services/lifecycle"
)

type BookingHandler struct {
	DB    *gorm.DB
	Roles middleware.RoleSource
	Hub   *realtime.Hub
}

func NewBookingHandler(db *gorm.DB, roleSource middleware.RoleSource, hub *realtime.Hub) *BookingHandler {
	return &BookingHandler{DB: db, Roles: roleSource, Hub: hub}
}

type CreateBookingReq struct {
	ServiceName string  `json:"service_name"`
	BookingDate string  `json:"booking_date"` // 2006-01-02 or RFC3339
	Location    string  `json:"location"`
	TotalCost   float64 `json:"total_cost"`

	// ignored if supplied; the server owns these
	Status        string `json:"status"`
	Paid          *bool  `json:"paid"`
	ProjectStatus string `json:"project_status"`
}

func parseBookingDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Create persists a new booking for the verified identity. Whatever
// the client sent for status/paid/projectStatus is discarded by the
// lifecycle normalization.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	email, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateBookingReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.ServiceName == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Service name is required",
		})
	}
	if req.TotalCost <= 0 {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Total cost must be positive",
		})
	}

	bookingDate := time.Now().AddDate(0, 0, 7)
	if req.BookingDate != "" {
		bookingDate, err = parseBookingDate(req.BookingDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": "Invalid booking date",
			})
		}
	}

	booking := lifecycle.NewBooking(models.Booking{
		UserEmail:   email,
		ServiceName: req.ServiceName,
		BookingDate: bookingDate,
		Location:    req.Location,
		TotalCost:   req.TotalCost,
	})

	if err := h.DB.Create(&booking).Error; err != nil {
		log.Println("Error creating booking:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create booking",
		})
	}

	h.Hub.BookingEvent(booking.UserEmail, nil, fiber.Map{
		"type":    "booking_created",
		"booking": booking,
	})

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"data":    booking,
	})
}

func (h *BookingHandler) GetOne(c *fiber.Ctx) error {
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

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Booking not found",
		})
	}

	isAssignee := booking.AssignedDecoratorEmail != nil && *booking.AssignedDecoratorEmail == email
	if booking.UserEmail != email && !isAssignee && !storedRoleIsAdmin(c, h.Roles) {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    booking,
	})
}

// ListByUser lists the caller's own bookings, newest first. The
// ownership check runs in route middleware.
func (h *BookingHandler) ListByUser(c *fiber.Ctx) error {
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

	q := h.DB.Model(&models.Booking{}).Where("user_email = ?", email)

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

type RescheduleReq struct {
	BookingDate string `json:"booking_date"`
	Location    string `json:"location"`
}

// Patch accepts only the reschedule fields. Status, paid and project
// status are not client-writable here or anywhere else.
func (h *BookingHandler) Patch(c *fiber.Ctx) error {
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

	var req RescheduleReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	var date time.Time
	if req.BookingDate != "" {
		date, err = parseBookingDate(req.BookingDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": "Invalid booking date",
			})
		}
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Booking not found",
		})
	}

	if booking.UserEmail != email {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}

	if err := lifecycle.Apply(&booking, lifecycle.Reschedule{Date: date, Location: req.Location}); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update booking",
		})
	}

	if err := h.DB.Save(&booking).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update booking",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    booking,
	})
}

// Delete removes a booking. Owners may delete their own unpaid
// bookings; once money has moved, only an admin may remove the record.
func (h *BookingHandler) Delete(c *fiber.Ctx) error {
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

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Booking not found",
		})
	}

	isAdmin := storedRoleIsAdmin(c, h.Roles)
	if booking.UserEmail != email && !isAdmin {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	}
	if booking.Paid && !isAdmin {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Paid bookings can only be removed by an admin",
		})
	}

	if err := h.DB.Delete(&booking).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete booking",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Booking deleted",
	})
}
