package medication

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	// ListByUser returns the user's prescriptions, newest first. A non-nil
	// activeOn keeps only those active on that day.
	ListByUser(ctx context.Context, userID uuid.UUID, activeOn *time.Time) ([]*Prescription, error)
	// DecrementRefills takes one refill off the prescription, failing with
	// ErrNoRefillsLeft when none remain.
	DecrementRefills(ctx context.Context, id uuid.UUID) error
	// ExpireBefore marks active prescriptions that ended before day expired.
	ExpireBefore(ctx context.Context, day time.Time) (int64, error)
	ListEndingOn(ctx context.Context, day time.Time) ([]*Prescription, error)
}
