package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	GetByName(ctx context.Context, name string) (*Doctor, error)
	// List returns doctors ordered by name. An empty speciality matches all;
	// otherwise it is a case-insensitive substring match.
	List(ctx context.Context, speciality string, activeOnly bool) ([]*Doctor, error)
	Create(ctx context.Context, d *Doctor) error
	UpdateStatus(ctx context.Context, name, status string) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// SlotTaken reports whether a non-cancelled appointment other than
	// excludeID holds doctor at date and clock.
	SlotTaken(ctx context.Context, doctor string, date time.Time, clock string, excludeID uuid.UUID) (bool, error)
	// BookedTimes returns the non-cancelled start times on date, keyed by
	// doctor name.
	BookedTimes(ctx context.Context, date time.Time) (map[string]map[string]bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Reschedule(ctx context.Context, id uuid.UUID, date time.Time, clock string) error
	// ListByUser returns the user's appointments ordered by date and time.
	// A non-nil from limits the result to non-cancelled ones on or after it.
	ListByUser(ctx context.Context, userID uuid.UUID, from *time.Time) ([]*Appointment, error)
	// ListByDate returns every non-cancelled appointment on date.
	ListByDate(ctx context.Context, date time.Time) ([]*Appointment, error)
}
