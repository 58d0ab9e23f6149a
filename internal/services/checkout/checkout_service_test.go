package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testService(baseURL string) *CheckoutService {
	return &CheckoutService{
		Client:       &http.Client{Timeout: time.Second},
		APIKey:       "test-api-key",
		PrivateKey:   "test-private-key",
		MerchantCode: "ED001",
		BaseURL:      baseURL,
		CallbackURL:  "http://localhost:8080/api/payments/callback",
		ReturnURL:    "http://localhost:3000/dashboard/payment-result",
	}
}

func TestCreateSession(t *testing.T) {
	t.Run("sends a signed request and returns the session", func(t *testing.T) {
		var gotAuth string
		var gotReq SessionRequest

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/checkout/sessions" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotReq)

			json.NewEncoder(w).Encode(sessionEnvelope{
				Success: true,
				Data: Session{
					ID:            "cs_123",
					MerchantRef:   gotReq.MerchantRef,
					CheckoutURL:   "https://pay.example.com/cs_123",
					Amount:        gotReq.Amount,
					Currency:      gotReq.Currency,
					PaymentStatus: "unpaid",
				},
			})
		}))
		defer srv.Close()

		svc := testService(srv.URL)

		session, err := svc.CreateSession("b-42", "client@example.com", "Wedding Decoration", 499.99)
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}

		if gotAuth != "Bearer test-api-key" {
			t.Errorf("Authorization = %q", gotAuth)
		}
		if gotReq.MerchantRef != "EDB-b-42" {
			t.Errorf("MerchantRef = %q", gotReq.MerchantRef)
		}
		if gotReq.Metadata["booking_id"] != "b-42" || gotReq.Metadata["user_email"] != "client@example.com" {
			t.Errorf("Metadata = %v", gotReq.Metadata)
		}
		if len(gotReq.LineItems) != 1 || gotReq.LineItems[0].Name != "Wedding Decoration" {
			t.Errorf("LineItems = %v", gotReq.LineItems)
		}

		// HMAC-SHA256( merchant_code + merchant_ref + amount_cents, private_key )
		mac := hmac.New(sha256.New, []byte("test-private-key"))
		mac.Write([]byte("ED001EDB-b-4249999"))
		want := hex.EncodeToString(mac.Sum(nil))
		if gotReq.Signature != want {
			t.Errorf("Signature = %q, want %q", gotReq.Signature, want)
		}

		if session.ID != "cs_123" {
			t.Errorf("session.ID = %q", session.ID)
		}
		if session.CheckoutURL != "https://pay.example.com/cs_123" {
			t.Errorf("CheckoutURL = %q", session.CheckoutURL)
		}
	})

	t.Run("surfaces the provider error message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(sessionEnvelope{Success: false, Message: "amount below minimum"})
		}))
		defer srv.Close()

		svc := testService(srv.URL)

		_, err := svc.CreateSession("b-42", "client@example.com", "Wedding Decoration", 0.01)
		if err == nil || !strings.Contains(err.Error(), "amount below minimum") {
			t.Fatalf("err = %v, want provider message", err)
		}
	})
}

func TestGetSession(t *testing.T) {
	t.Run("fetches session state", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/checkout/sessions/cs_123" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(sessionEnvelope{
				Success: true,
				Data: Session{
					ID:            "cs_123",
					PaymentStatus: "paid",
					TransactionID: "tx-77",
				},
			})
		}))
		defer srv.Close()

		svc := testService(srv.URL)

		session, err := svc.GetSession("cs_123")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if !session.IsPaid() {
			t.Errorf("IsPaid() = false for status %q", session.PaymentStatus)
		}
		if session.TransactionID != "tx-77" {
			t.Errorf("TransactionID = %q", session.TransactionID)
		}
	})

	t.Run("unpaid session is not paid", func(t *testing.T) {
		s := Session{PaymentStatus: "unpaid"}
		if s.IsPaid() {
			t.Error("IsPaid() = true for unpaid session")
		}
	})
}

func TestValidateSignature(t *testing.T) {
	svc := testService("http://unused")
	body := `{"session_id":"cs_123","payment_status":"paid"}`

	mac := hmac.New(sha256.New, []byte(svc.PrivateKey))
	mac.Write([]byte(body))
	good := hex.EncodeToString(mac.Sum(nil))

	t.Run("accepts the correct signature", func(t *testing.T) {
		if !svc.ValidateSignature(good, body) {
			t.Error("valid signature rejected")
		}
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		if svc.ValidateSignature(good, body+" ") {
			t.Error("tampered body accepted")
		}
	})

	t.Run("rejects a forged signature", func(t *testing.T) {
		if svc.ValidateSignature("deadbeef", body) {
			t.Error("forged signature accepted")
		}
	})
}
