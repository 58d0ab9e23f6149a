package checkout

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"
)

// CheckoutService talks to the hosted payment provider: it creates
// checkout sessions (the client is redirected to the provider's page)
// and fetches session state back during verification.
type CheckoutService struct {
	Client       *http.Client
	APIKey       string
	PrivateKey   string
	MerchantCode string
	BaseURL      string
	CallbackURL  string
	ReturnURL    string
}

func NewCheckoutService() *CheckoutService {
	baseURL := os.Getenv("CHECKOUT_BASE_URL")
	if baseURL == "" {
		baseURL = "https://pay.elitedecor.app/api-sandbox"
	}

	appBase := os.Getenv("APP_BASE_URL")
	frontend := os.Getenv("FRONTEND_BASE_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	return &CheckoutService{
		Client:       &http.Client{Timeout: 15 * time.Second},
		APIKey:       os.Getenv("CHECKOUT_API_KEY"),
		PrivateKey:   os.Getenv("CHECKOUT_PRIVATE_KEY"),
		MerchantCode: os.Getenv("CHECKOUT_MERCHANT_CODE"),
		BaseURL:      baseURL,
		CallbackURL:  appBase + "/api/payments/callback",
		ReturnURL:    frontend + "/dashboard/payment-result",
	}
}

type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type SessionRequest struct {
	MerchantRef   string            `json:"merchant_ref"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	LineItems     []LineItem        `json:"line_items"`
	Metadata      map[string]string `json:"metadata"`
	CallbackURL   string            `json:"callback_url"`
	ReturnURL     string            `json:"return_url"`
	ExpiredTime   int64             `json:"expired_time"` // unix timestamp
	Signature     string            `json:"signature"`
}

type Session struct {
	ID            string            `json:"id"`
	MerchantRef   string            `json:"merchant_ref"`
	CheckoutURL   string            `json:"checkout_url"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status"` // unpaid | paid | expired
	TransactionID string            `json:"transaction_id"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

func (s Session) IsPaid() bool { return s.PaymentStatus == "paid" }

type sessionEnvelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    Session `json:"data"`
}

// CreateSession opens a hosted checkout session for one booking. The
// booking id and owner email travel in the session metadata so the
// verification path can tie the session back to its booking.
func (s *CheckoutService) CreateSession(bookingID, userEmail, itemName string, amount float64) (*Session, error) {
	merchantRef := "EDB-" + bookingID

	// HMAC-SHA256( merchant_code + merchant_ref + amount_cents, private_key )
	sigData := fmt.Sprintf("%s%s%d", s.MerchantCode, merchantRef, int64(math.Round(amount*100)))
	signature := s.generateSignature(sigData)

	reqBody := SessionRequest{
		MerchantRef:   merchantRef,
		Amount:        amount,
		Currency:      "USD",
		CustomerEmail: userEmail,
		LineItems: []LineItem{
			{Name: itemName, Price: amount, Quantity: 1},
		},
		Metadata: map[string]string{
			"booking_id": bookingID,
			"user_email": userEmail,
		},
		CallbackURL: s.CallbackURL,
		ReturnURL:   s.ReturnURL,
		ExpiredTime: time.Now().Add(24 * time.Hour).Unix(),
		Signature:   signature,
	}

	jsonBody, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", s.BaseURL+"/checkout/sessions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp sessionEnvelope
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("checkout error: %s", apiResp.Message)
	}

	return &apiResp.Data, nil
}

// GetSession fetches the current state of a checkout session.
func (s *CheckoutService) GetSession(sessionID string) (*Session, error) {
	req, err := http.NewRequest("GET", s.BaseURL+"/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp sessionEnvelope
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("checkout error: %s", apiResp.Message)
	}

	return &apiResp.Data, nil
}

func (s *CheckoutService) generateSignature(data string) string {
	h := hmac.New(sha256.New, []byte(s.PrivateKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature checks a provider callback.
// Callback signature: HMAC-SHA256( raw JSON body, private_key )
func (s *CheckoutService) ValidateSignature(incomingSig, jsonBody string) bool {
	h := hmac.New(sha256.New, []byte(s.PrivateKey))
	h.Write([]byte(jsonBody))
	calculated := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(calculated), []byte(incomingSig))
}
