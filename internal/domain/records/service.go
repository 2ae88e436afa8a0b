package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicbot/clinic/internal/platform/notification"
)

var (
	ErrReminderNotFound  = errors.New("reminder not found")
	ErrInvalidRecurrence = errors.New("recurrence pattern must be daily, weekly or monthly")
)

type Service struct {
	records   HealthRecordRepository
	reminders ReminderRepository
	postCare  PostCareRepository
	templates *notification.TemplateEngine
	now       func() time.Time
}

func NewService(records HealthRecordRepository, reminders ReminderRepository, postCare PostCareRepository, templates *notification.TemplateEngine) *Service {
	return &Service{records: records, reminders: reminders, postCare: postCare, templates: templates, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time { return civilDate(s.now()) }

// -- Health records --

func (s *Service) ListHealthRecords(ctx context.Context, userID uuid.UUID, recordType string) ([]*HealthRecord, error) {
	return s.records.ListByUser(ctx, userID, strings.TrimSpace(recordType), 0)
}

// Summary returns how many records of each type the user has and the most
// recent ones.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	counts, err := s.records.CountByType(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.records.ListByUser(ctx, userID, "", SummaryRecentLimit)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Counts: counts, Recent: recent}
	for _, n := range counts {
		sum.Total += n
	}
	return sum, nil
}

// AddHealthRecord stores a record and leaves the patient a record-update
// reminder. A failed reminder is logged and does not undo the record.
func (s *Service) AddHealthRecord(ctx context.Context, rec *HealthRecord) error {
	if rec.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(rec.RecordType) == "" {
		return fmt.Errorf("record_type is required")
	}
	if rec.RecordDate.IsZero() {
		rec.RecordDate = s.today()
	}
	rec.RecordDate = civilDate(rec.RecordDate)
	if err := s.records.Create(ctx, rec); err != nil {
		return err
	}

	notifier := notification.NewNotifier(s.templates, s)
	err := notifier.Notify(ctx, rec.UserID, notification.TemplateRecordUpdate, map[string]string{
		"record_type": rec.RecordType,
		"date":        rec.RecordDate.Format(time.DateOnly),
	}, s.today(), "")
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("user_id", rec.UserID.String()).
			Str("record_id", rec.ID.String()).
			Msg("record update notification failed")
	}
	return nil
}

// -- Reminders --

func (s *Service) SetReminder(ctx context.Context, r *Reminder) error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(r.ReminderType) == "" {
		return fmt.Errorf("reminder_type is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if r.ReminderDate.IsZero() {
		return fmt.Errorf("reminder_date is required")
	}
	r.ReminderDate = civilDate(r.ReminderDate)
	if r.ReminderDate.Before(s.today()) {
		return fmt.Errorf("reminder_date is in the past")
	}
	if r.ReminderTime != nil {
		if _, err := time.Parse("15:04", *r.ReminderTime); err != nil {
			return fmt.Errorf("reminder_time must be HH:MM")
		}
	}
	if r.IsRecurring {
		if r.RecurrencePattern == nil || !validRecurrence[*r.RecurrencePattern] {
			return ErrInvalidRecurrence
		}
	} else {
		r.RecurrencePattern = nil
	}
	r.Status = ReminderPending
	return s.reminders.Create(ctx, r)
}

func (s *Service) ListUpcomingReminders(ctx context.Context, userID uuid.UUID) ([]*Reminder, error) {
	return s.reminders.ListUpcoming(ctx, userID, s.today())
}

func (s *Service) DismissReminder(ctx context.Context, userID, id uuid.UUID) error {
	return s.reminders.Dismiss(ctx, userID, id)
}

// Deliver stores a rendered notification as a pending reminder, making the
// service a notification.Sink.
func (s *Service) Deliver(ctx context.Context, msg notification.Message) error {
	r := &Reminder{
		UserID:       msg.UserID,
		ReminderType: msg.Kind,
		ReminderDate: civilDate(msg.Date),
		Description:  msg.Text,
		Status:       ReminderPending,
	}
	if msg.Time != "" {
		clock := msg.Time
		r.ReminderTime = &clock
	}
	return s.reminders.Create(ctx, r)
}

// -- Post-care --

func (s *Service) ListPostCareInstructions(ctx context.Context, userID uuid.UUID, procedure string) ([]*PostCareInstruction, error) {
	return s.postCare.ListByUser(ctx, userID, strings.TrimSpace(procedure))
}

func (s *Service) AddPostCareInstructions(ctx context.Context, p *PostCareInstruction) error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(p.ProcedureType) == "" {
		return fmt.Errorf("procedure_type is required")
	}
	if strings.TrimSpace(p.Instructions) == "" {
		return fmt.Errorf("instructions are required")
	}
	if p.InstructionDate.IsZero() {
		p.InstructionDate = s.today()
	}
	p.InstructionDate = civilDate(p.InstructionDate)
	return s.postCare.Create(ctx, p)
}
