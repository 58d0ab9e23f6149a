package handlers

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitedecor/backend/internal/models"
)

type ServiceHandler struct {
	DB *gorm.DB
}

func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{DB: db}
}

type ServiceReq struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description"`
}

// ListPublic is the public catalog: search, category and price
// filters, sorting and pagination.
func (h *ServiceHandler) ListPublic(c *fiber.Ctx) error {
	qSearch := c.Query("q")
	category := c.Query("cat")
	minCost := c.QueryFloat("min", 0)
	maxCost := c.QueryFloat("max", 0)
	sortParam := c.Query("sort") // latest | price_low | price_high

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 12)
	if limit < 1 || limit > 100 {
		limit = 12
	}
	offset := (page - 1) * limit

	q := h.DB.Model(&models.Service{})

	if qSearch != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(qSearch)+"%")
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if minCost > 0 {
		q = q.Where("cost >= ?", minCost)
	}
	if maxCost > 0 {
		q = q.Where("cost <= ?", maxCost)
	}

	var total int64
	q.Count(&total)

	switch sortParam {
	case "price_low":
		q = q.Order("cost ASC")
	case "price_high":
		q = q.Order("cost DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var services []models.Service
	if err := q.Limit(limit).Offset(offset).Find(&services).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch services",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    services,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *ServiceHandler) GetCategories(c *fiber.Ctx) error {
	var categories []string

	err := h.DB.
		Model(&models.Service{}).
		Distinct("category").
		Pluck("category", &categories).
		Error

	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch categories",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}

func (h *ServiceHandler) GetOne(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	var service models.Service
	if err := h.DB.First(&service, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    service,
	})
}

func (h *ServiceHandler) Create(c *fiber.Ctx) error {
	var req ServiceReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Name and category are required",
		})
	}
	if req.Cost <= 0 {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Cost must be positive",
		})
	}

	service := models.Service{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Cost:        req.Cost,
		Description: req.Description,
	}

	if err := h.DB.Create(&service).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to save service",
		})
	}

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"data":    service,
	})
}

func (h *ServiceHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	var service models.Service
	if err := h.DB.First(&service, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	var req ServiceReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name != "" {
		service.Name = strings.TrimSpace(req.Name)
	}
	if req.Category != "" {
		service.Category = strings.TrimSpace(req.Category)
	}
	if req.Cost > 0 {
		service.Cost = req.Cost
	}
	if req.Description != "" {
		service.Description = req.Description
	}

	if err := h.DB.Save(&service).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update service",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    service,
	})
}

func (h *ServiceHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Invalid service ID",
		})
	}

	var service models.Service
	if err := h.DB.First(&service, "id = ?", id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"message": "Service not found",
		})
	}

	if err := h.DB.Delete(&service).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete service",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Service deleted",
	})
}
