package records

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReminderPending   = "pending"
	ReminderSent      = "sent"
	ReminderDismissed = "dismissed"
)

// SummaryRecentLimit is how many records Summary returns.
const SummaryRecentLimit = 10

var validRecurrence = map[string]bool{"daily": true, "weekly": true, "monthly": true}

type HealthRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	RecordType  string    `json:"record_type"`
	RecordDate  time.Time `json:"record_date"`
	Description *string   `json:"description,omitempty"`
	Results     *string   `json:"results,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Reminder struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	ReminderType      string    `json:"reminder_type"`
	ReminderDate      time.Time `json:"reminder_date"`
	ReminderTime      *string   `json:"reminder_time,omitempty"`
	Description       string    `json:"description"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

type PostCareInstruction struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	ProcedureType   string    `json:"procedure_type"`
	Instructions    string    `json:"instructions"`
	InstructionDate time.Time `json:"instruction_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary is a patient's record counts by type plus the latest entries.
type Summary struct {
	Counts map[string]int  `json:"counts"`
	Total  int             `json:"total"`
	Recent []*HealthRecord `json:"recent"`
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
