package medication

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive  = "active"
	StatusPending = "pending"
	StatusExpired = "expired"
)

// DefaultReminderLeadDays is how many days before the end date a refill
// reminder falls when the caller does not choose.
const DefaultReminderLeadDays = 3

// Prescription is a medication order for a patient. A refill request is
// stored as a pending prescription whose RefillOf points at the original.
type Prescription struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	MedicationName   string     `json:"medication_name"`
	Dosage           *string    `json:"dosage,omitempty"`
	Frequency        *string    `json:"frequency,omitempty"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	RefillsRemaining int        `json:"refills_remaining"`
	SideEffects      *string    `json:"side_effects,omitempty"`
	Status           string     `json:"status"`
	RefillOf         *uuid.UUID `json:"refill_of,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ActiveOn reports whether the prescription is active and has not ended
// before day.
func (p *Prescription) ActiveOn(day time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(day)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
