package records

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type HealthRecordRepository interface {
	Create(ctx context.Context, r *HealthRecord) error
	// ListByUser returns records newest first, optionally of one type.
	ListByUser(ctx context.Context, userID uuid.UUID, recordType string, limit int) ([]*HealthRecord, error)
	CountByType(ctx context.Context, userID uuid.UUID) (map[string]int, error)
}

type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) error
	// ListUpcoming returns reminders on or after from that are not dismissed.
	ListUpcoming(ctx context.Context, userID uuid.UUID, from time.Time) ([]*Reminder, error)
	Dismiss(ctx context.Context, userID, id uuid.UUID) error
}

type PostCareRepository interface {
	Create(ctx context.Context, p *PostCareInstruction) error
	ListByUser(ctx context.Context, userID uuid.UUID, procedure string) ([]*PostCareInstruction, error)
}
