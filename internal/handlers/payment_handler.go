package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitedecor/backend/internal/models"
	"github.com/elitedecor/backend/internal/realtime"
	"github.com/elitedecor/backend/internal/services/checkout"
	"github.com/elitedecor/backend/internal/services/lifecycle"
)

type PaymentHandler struct {
	DB       *gorm.DB
	Checkout *checkout.CheckoutService
	Hub      *realtime.Hub
}

func NewPaymentHandler(db *gorm.DB, checkoutService *checkout.CheckoutService, hub *realtime.Hub) *PaymentHandler {
	return &PaymentHandler{DB: db, Checkout: checkoutService, Hub: hub}
}

type CreateCheckoutSessionReq struct {
	BookingID string `json:"booking_id"`
}

// CreateCheckoutSession opens a hosted checkout session for one of the
// caller's own bookings and returns the redirect URL.
func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	email, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateCheckoutSessionReq
	if err := c.BodyParser(&req); err != nil || req.BookingID == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Booking ID is required",
		})
	}

	id, err := uuid.Parse(req.BookingID)
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

	if booking.UserEmail != email {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Only the booking owner can pay for it",
		})
	}

	if booking.Paid {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Booking is already paid",
		})
	}

	itemName := booking.ServiceName + " — " + booking.BookingDate.Format("2006-01-02") + " @ " + booking.Location

	session, err := h.Checkout.CreateSession(booking.ID.String(), booking.UserEmail, itemName, booking.TotalCost)
	if err != nil {
		log.Printf("Checkout error: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Payment gateway error: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"session_id":   session.ID,
			"checkout_url": session.CheckoutURL,
		},
	})
}

// recordVerifiedSession writes the Payment row and marks the booking
// paid in one transaction. Idempotent on the session id: a session
// that was already recorded just returns the existing payment.
func (h *PaymentHandler) recordVerifiedSession(session *checkout.Session, booking *models.Booking) (*models.Payment, error) {
	var existing models.Payment
	err := h.DB.Where("session_id = ?", session.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	payment := models.Payment{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		SessionID:     session.ID,
		TransactionID: session.TransactionID,
		Amount:        session.Amount,
		Currency:      session.Currency,
		UserEmail:     booking.UserEmail,
		Status:        models.PaymentPaid,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		cmd := lifecycle.MarkPaid{PaymentID: payment.ID, TransactionID: session.TransactionID}
		if err := lifecycle.Apply(booking, cmd); err != nil {
			return err
		}
		return tx.Save(booking).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

type VerifyPaymentReq struct {
	SessionID string `json:"session_id"`
	BookingID string `json:"booking_id"`
}

// VerifyPayment fetches the session from the provider and, if it has
// been paid, records the payment and marks the booking paid.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	email, err := getAuthEmail(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req VerifyPaymentReq
	if err := c.BodyParser(&req); err != nil || req.SessionID == "" || req.BookingID == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Session ID and booking ID are required",
		})
	}

	id, err := uuid.Parse(req.BookingID)
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

	if booking.UserEmail != email {
		return c.Status(403).JSON(fiber.Map{
			"success": false,
			"message": "Only the booking owner can verify this payment",
		})
	}

	session, err := h.Checkout.GetSession(req.SessionID)
	if err != nil {
		log.Printf("Checkout error: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Payment gateway error: " + err.Error(),
		})
	}

	if !session.IsPaid() {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Payment not completed",
		})
	}

	// the session metadata carries the booking it was opened for;
	// a session cannot settle any other booking
	if session.Metadata["booking_id"] != booking.ID.String() {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Session does not belong to this booking",
		})
	}
	if session.Amount != booking.TotalCost {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Session amount does not match the booking",
		})
	}

	payment, err := h.recordVerifiedSession(session, &booking)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		log.Println("Error recording payment:", err)
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to record payment",
		})
	}

	h.Hub.BookingEvent(booking.UserEmail, booking.AssignedDecoratorEmail, fiber.Map{
		"type":    "booking_paid",
		"booking": booking,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"payment": payment,
			"booking": booking,
		},
	})
}

type CheckoutCallbackPayload struct {
	SessionID     string            `json:"session_id"`
	MerchantRef   string            `json:"merchant_ref"`
	TransactionID string            `json:"transaction_id"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

// HandleCallback is the provider's server-to-server notification. The
// HMAC signature over the raw body is the authentication here.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	signature := c.Get("X-Callback-Signature")
	if signature == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Missing signature"})
	}

	body := c.Body()
	if !h.Checkout.ValidateSignature(signature, string(body)) {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid signature"})
	}

	var payload CheckoutCallbackPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid payload"})
	}

	if payload.PaymentStatus != "paid" {
		// nothing to record for unpaid/expired sessions
		return c.JSON(fiber.Map{"success": true})
	}

	bookingID := payload.Metadata["booking_id"]
	id, err := uuid.Parse(bookingID)
	if err != nil {
		log.Printf("Callback with invalid booking id: %q", bookingID)
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid booking reference"})
	}

	var booking models.Booking
	if err := h.DB.First(&booking, "id = ?", id).Error; err != nil {
		log.Printf("Booking not found for callback session %s", payload.SessionID)
		return c.JSON(fiber.Map{"success": false, "message": "Booking not found, ignored"})
	}

	if payload.Amount != booking.TotalCost {
		log.Printf("Callback amount %v does not match booking %s total %v", payload.Amount, booking.ID, booking.TotalCost)
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Amount mismatch"})
	}

	session := &checkout.Session{
		ID:            payload.SessionID,
		MerchantRef:   payload.MerchantRef,
		TransactionID: payload.TransactionID,
		Amount:        payload.Amount,
		Currency:      payload.Currency,
		PaymentStatus: payload.PaymentStatus,
		CustomerEmail: payload.CustomerEmail,
		Metadata:      payload.Metadata,
	}

	if _, err := h.recordVerifiedSession(session, &booking); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			// already paid via the verify path; acknowledge
			return c.JSON(fiber.Map{"success": true})
		}
		log.Println("Error recording callback payment:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to record payment"})
	}

	h.Hub.BookingEvent(booking.UserEmail, booking.AssignedDecoratorEmail, fiber.Map{
		"type":    "booking_paid",
		"booking": booking,
	})

	return c.JSON(fiber.Map{"success": true})
}

// ListByUser lists the caller's payments. The ownership check runs in
// route middleware.
func (h *PaymentHandler) ListByUser(c *fiber.Ctx) error {
	email := paramEmail(c, "email")

	var payments []models.Payment
	if err := h.DB.Where("user_email = ?", email).Order("created_at DESC").Find(&payments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch payments",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    payments,
	})
}
