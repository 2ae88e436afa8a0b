package medication

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbot/clinic/internal/platform/db"
	"github.com/clinicbot/clinic/internal/platform/notification"
)

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrNotActive            = errors.New("prescription is not active")
	ErrNoRefillsLeft        = errors.New("no refills remaining")
	ErrInvalidLeadDays      = errors.New("days before must be between 0 and 30")
)

// Notifier delivers rendered reminders. *notification.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, templateID string, data map[string]string, date time.Time, clock string) error
}

type Service struct {
	prescriptions PrescriptionRepository
	notifier      Notifier
	tx            db.Transactor
	now           func() time.Time
}

func NewService(prescriptions PrescriptionRepository, notifier Notifier, tx db.Transactor) *Service {
	return &Service{prescriptions: prescriptions, notifier: notifier, tx: tx, now: time.Now}
}

// WithClock replaces the clock used to decide what is active today.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time { return civilDate(s.now()) }

// ListActive returns prescriptions that are active and not past their end date.
func (s *Service) ListActive(ctx context.Context, userID uuid.UUID) ([]*Prescription, error) {
	today := s.today()
	return s.prescriptions.ListByUser(ctx, userID, &today)
}

func (s *Service) ListAll(ctx context.Context, userID uuid.UUID) ([]*Prescription, error) {
	return s.prescriptions.ListByUser(ctx, userID, nil)
}

// FindActiveByName narrows the active list to medications whose name
// contains name, ignoring case.
func (s *Service) FindActiveByName(ctx context.Context, userID uuid.UUID, name string) ([]*Prescription, error) {
	active, err := s.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	var out []*Prescription
	for _, p := range active {
		if strings.Contains(strings.ToLower(p.MedicationName), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) owned(ctx context.Context, userID, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrPrescriptionNotFound
	}
	return p, nil
}

// RequestRefill uses one of the prescription's refills and files a pending
// refill request for pharmacy review.
func (s *Service) RequestRefill(ctx context.Context, userID, prescriptionID uuid.UUID) (*Prescription, error) {
	var refill *Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.owned(ctx, userID, prescriptionID)
		if err != nil {
			return err
		}
		if !p.ActiveOn(s.today()) {
			return ErrNotActive
		}
		if p.RefillsRemaining <= 0 {
			return ErrNoRefillsLeft
		}
		if err := s.prescriptions.DecrementRefills(ctx, p.ID); err != nil {
			return err
		}
		origin := p.ID
		refill = &Prescription{
			UserID:         userID,
			MedicationName: p.MedicationName,
			Dosage:         p.Dosage,
			Frequency:      p.Frequency,
			SideEffects:    p.SideEffects,
			Status:         StatusPending,
			RefillOf:       &origin,
		}
		if err := s.prescriptions.Create(ctx, refill); err != nil {
			return fmt.Errorf("create refill request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refill, nil
}

// RefillStatus returns a refill request owned by the user.
func (s *Service) RefillStatus(ctx context.Context, userID, refillID uuid.UUID) (*Prescription, error) {
	p, err := s.owned(ctx, userID, refillID)
	if err != nil {
		return nil, err
	}
	if p.RefillOf == nil {
		return nil, ErrPrescriptionNotFound
	}
	return p, nil
}

// ScheduleRefillReminder files a refill reminder daysBefore the end date, or
// thirty days out when the prescription is open-ended. A reminder that
// would fall in the past is due today. It returns the reminder date.
func (s *Service) ScheduleRefillReminder(ctx context.Context, userID, prescriptionID uuid.UUID, daysBefore int) (time.Time, error) {
	if daysBefore < 0 || daysBefore > 30 {
		return time.Time{}, ErrInvalidLeadDays
	}
	p, err := s.owned(ctx, userID, prescriptionID)
	if err != nil {
		return time.Time{}, err
	}
	today := s.today()
	due := today.AddDate(0, 0, 30)
	end := "no end date"
	if p.EndDate != nil {
		due = civilDate(*p.EndDate).AddDate(0, 0, -daysBefore)
		end = p.EndDate.Format("2006-01-02")
	}
	if due.Before(today) {
		due = today
	}
	err = s.notifier.Notify(ctx, userID, notification.TemplateRefillReminder, map[string]string{
		"medication": p.MedicationName,
		"end_date":   end,
	}, due, "")
	if err != nil {
		return time.Time{}, err
	}
	return due, nil
}

// ExpireOverdue marks prescriptions that ended before today as expired.
func (s *Service) ExpireOverdue(ctx context.Context, today time.Time) (int64, error) {
	return s.prescriptions.ExpireBefore(ctx, civilDate(today))
}

// EndingOn lists active prescriptions whose last day is day.
func (s *Service) EndingOn(ctx context.Context, day time.Time) ([]*Prescription, error) {
	return s.prescriptions.ListEndingOn(ctx, civilDate(day))
}
