package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"   // waiting for payment / assignment
	BookingConfirmed BookingStatus = "confirmed" // decorator assigned
	BookingCancelled BookingStatus = "cancelled"
)

type ProjectStatus string

const (
	ProjectAssigned   ProjectStatus = "assigned"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)

type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserEmail string    `gorm:"type:varchar(150);not null;index" json:"user_email"`

	ServiceName string    `gorm:"not null" json:"service_name"`
	BookingDate time.Time `json:"booking_date"`
	Location    string    `gorm:"type:text" json:"location"`
	TotalCost   float64   `json:"total_cost"`

	Status        BookingStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Paid          bool          `gorm:"default:false" json:"paid"`
	ProjectStatus ProjectStatus `gorm:"type:varchar(20);default:'assigned'" json:"project_status"`

	AssignedDecoratorEmail *string `gorm:"type:varchar(150);index" json:"assigned_decorator_email"`
	AssignedDecoratorName  *string `gorm:"type:varchar(150)" json:"assigned_decorator_name"`

	PaymentID     *uuid.UUID `gorm:"type:uuid" json:"payment_id"`
	TransactionID string     `gorm:"type:varchar(100)" json:"transaction_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
