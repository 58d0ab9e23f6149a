package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPaid PaymentStatus = "paid"
)

// Payment is written exactly once per verified checkout session and is
// never updated afterwards.
type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`

	SessionID     string `gorm:"type:varchar(100);uniqueIndex" json:"session_id"`
	TransactionID string `gorm:"type:varchar(100);uniqueIndex" json:"transaction_id"`

	Amount    float64       `json:"amount"`
	Currency  string        `gorm:"type:varchar(10)" json:"currency"`
	UserEmail string        `gorm:"type:varchar(150);index" json:"user_email"`
	Status    PaymentStatus `gorm:"type:varchar(20)" json:"status"`

	CreatedAt time.Time `json:"created_at"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
