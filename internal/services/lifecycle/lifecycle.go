package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elitedecor/backend/internal/models"
)

// ErrInvalidTransition is wrapped by every rejected (state, command)
// pair; handlers map it to HTTP 400.
var ErrInvalidTransition = errors.New("invalid booking transition")

// Command is a requested change to a booking. All writes to a
// booking's status fields go through Apply; nothing else mutates them.
type Command interface {
	isCommand()
}

// MarkPaid records a verified checkout payment. The booking status is
// left untouched: payment and assignment are separate tracks, and the
// admin assignment step is what moves pending -> confirmed.
type MarkPaid struct {
	PaymentID     uuid.UUID
	TransactionID string
}

// AssignDecorator attaches a decorator to a paid, pending booking and
// confirms it.
type AssignDecorator struct {
	Email string
	Name  string
}

// SetProjectStatus advances the fulfilment track.
type SetProjectStatus struct {
	Status models.ProjectStatus
}

// Reschedule moves date/location while the booking is still pending
// and nobody has been assigned.
type Reschedule struct {
	Date     time.Time
	Location string
}

// Cancel aborts a booking that has not been completed.
type Cancel struct{}

func (MarkPaid) isCommand()         {}
func (AssignDecorator) isCommand()  {}
func (SetProjectStatus) isCommand() {}
func (Reschedule) isCommand()       {}
func (Cancel) isCommand()           {}

// projectTransitions is the legal fulfilment-track transition table.
var projectTransitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.ProjectAssigned:   {models.ProjectInProgress, models.ProjectCancelled},
	models.ProjectInProgress: {models.ProjectCompleted, models.ProjectCancelled},
}

func projectTransitionAllowed(from, to models.ProjectStatus) bool {
	for _, next := range projectTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseProjectStatus validates a caller-supplied project status string.
func ParseProjectStatus(s string) (models.ProjectStatus, error) {
	switch models.ProjectStatus(strings.ToLower(strings.TrimSpace(s))) {
	case models.ProjectAssigned:
		return models.ProjectAssigned, nil
	case models.ProjectInProgress:
		return models.ProjectInProgress, nil
	case models.ProjectCompleted:
		return models.ProjectCompleted, nil
	case models.ProjectCancelled:
		return models.ProjectCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown project status %q", ErrInvalidTransition, s)
}

// NewBooking normalizes a client-supplied booking payload. Status,
// paid and project status are server-owned regardless of what the
// caller sent.
func NewBooking(in models.Booking) models.Booking {
	in.ID = uuid.Nil
	in.UserEmail = strings.ToLower(strings.TrimSpace(in.UserEmail))
	in.Status = models.BookingPending
	in.Paid = false
	in.ProjectStatus = models.ProjectAssigned
	in.AssignedDecoratorEmail = nil
	in.AssignedDecoratorName = nil
	in.PaymentID = nil
	in.TransactionID = ""
	return in
}

// Apply validates cmd against the booking's current state and mutates
// the booking in place. Persisting the result (and doing so inside a
// DB transaction where more than one row changes) is the caller's job.
func Apply(b *models.Booking, cmd Command) error {
	switch v := cmd.(type) {
	case MarkPaid:
		if b.Paid {
			return fmt.Errorf("%w: booking %s is already paid", ErrInvalidTransition, b.ID)
		}
		if b.Status == models.BookingCancelled {
			return fmt.Errorf("%w: booking %s is cancelled", ErrInvalidTransition, b.ID)
		}
		pid := v.PaymentID
		b.Paid = true
		b.PaymentID = &pid
		b.TransactionID = v.TransactionID
		return nil

	case AssignDecorator:
		if !b.Paid {
			return fmt.Errorf("%w: booking %s is not paid", ErrInvalidTransition, b.ID)
		}
		if b.Status != models.BookingPending {
			return fmt.Errorf("%w: booking %s is %s, expected pending", ErrInvalidTransition, b.ID, b.Status)
		}
		email := strings.ToLower(strings.TrimSpace(v.Email))
		name := strings.TrimSpace(v.Name)
		b.AssignedDecoratorEmail = &email
		b.AssignedDecoratorName = &name
		b.Status = models.BookingConfirmed
		return nil

	case SetProjectStatus:
		if b.AssignedDecoratorEmail == nil {
			return fmt.Errorf("%w: booking %s has no decorator assigned", ErrInvalidTransition, b.ID)
		}
		if !projectTransitionAllowed(b.ProjectStatus, v.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.ProjectStatus, v.Status)
		}
		b.ProjectStatus = v.Status
		return nil

	case Reschedule:
		if b.Status != models.BookingPending || b.AssignedDecoratorEmail != nil {
			return fmt.Errorf("%w: booking %s can no longer be rescheduled", ErrInvalidTransition, b.ID)
		}
		if !v.Date.IsZero() {
			b.BookingDate = v.Date
		}
		if strings.TrimSpace(v.Location) != "" {
			b.Location = v.Location
		}
		return nil

	case Cancel:
		if b.Status == models.BookingCancelled {
			return fmt.Errorf("%w: booking %s is already cancelled", ErrInvalidTransition, b.ID)
		}
		if b.ProjectStatus == models.ProjectCompleted {
			return fmt.Errorf("%w: booking %s is completed", ErrInvalidTransition, b.ID)
		}
		b.Status = models.BookingCancelled
		b.ProjectStatus = models.ProjectCancelled
		return nil
	}

	return fmt.Errorf("%w: unsupported command %T", ErrInvalidTransition, cmd)
}
