// Package jobs runs the daily reminder and prescription housekeeping on a
// cron schedule.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/clinicbot/clinic/internal/domain/medication"
	"github.com/clinicbot/clinic/internal/domain/scheduling"
	"github.com/clinicbot/clinic/internal/platform/notification"
)

const (
	JobAppointmentReminders = "appointment-reminders"
	JobPrescriptionSweep    = "prescription-sweep"
)

type Appointments interface {
	ListForDate(ctx context.Context, day time.Time) ([]*scheduling.Appointment, error)
}

type Prescriptions interface {
	ExpireOverdue(ctx context.Context, today time.Time) (int64, error)
	EndingOn(ctx context.Context, day time.Time) ([]*medication.Prescription, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, templateID string, data map[string]string, date time.Time, clock string) error
}

// Runner owns the cron scheduler and the two daily jobs.
type Runner struct {
	cron          *cron.Cron
	appointments  Appointments
	prescriptions Prescriptions
	notifier      Notifier
	logger        zerolog.Logger
	loc           *time.Location
	now           func() time.Time
}

func New(appointments Appointments, prescriptions Prescriptions, notifier Notifier, logger zerolog.Logger) *Runner {
	return &Runner{
		appointments:  appointments,
		prescriptions: prescriptions,
		notifier:      notifier,
		logger:        logger.With().Str("component", "jobs").Logger(),
		loc:           time.UTC,
		now:           time.Now,
	}
}

// WithLocation sets the zone that decides what "today" is.
func (r *Runner) WithLocation(loc *time.Location) *Runner {
	if loc != nil {
		r.loc = loc
	}
	return r
}

func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

func (r *Runner) today() time.Time {
	y, m, d := r.now().In(r.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Start registers both jobs on spec (standard five-field cron syntax) and
// starts the scheduler goroutine.
func (r *Runner) Start(spec string) error {
	if r.cron != nil {
		return errors.New("jobs already started")
	}
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithChain(cron.Recover(cronLogger{r.logger}), cron.SkipIfStillRunning(cronLogger{r.logger})),
	)
	for name, job := range map[string]func(context.Context) error{
		JobAppointmentReminders: r.SendAppointmentReminders,
		JobPrescriptionSweep:    r.SweepPrescriptions,
	} {
		if _, err := c.AddFunc(spec, func() { r.run(context.Background(), name, job) }); err != nil {
			return fmt.Errorf("schedule %s: %w", name, err)
		}
	}
	c.Start()
	r.cron = c
	r.logger.Info().Str("schedule", spec).Msg("background jobs started")
	return nil
}

// Stop halts the scheduler and waits for running jobs or ctx, whichever
// comes first.
func (r *Runner) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn().Msg("background jobs still running at shutdown")
	}
}

// RunNow runs both jobs synchronously and joins their errors.
func (r *Runner) RunNow(ctx context.Context) error {
	return errors.Join(
		r.run(ctx, JobAppointmentReminders, r.SendAppointmentReminders),
		r.run(ctx, JobPrescriptionSweep, r.SweepPrescriptions),
	)
}

func (r *Runner) run(ctx context.Context, name string, job func(context.Context) error) error {
	start := time.Now()
	logger := r.logger.With().Str("job", name).Logger()
	err := job(logger.WithContext(ctx))
	if err != nil {
		logger.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Info().Dur("took", time.Since(start)).Msg("job finished")
	return nil
}

// SendAppointmentReminders notifies every patient with a live appointment
// tomorrow. One failed delivery does not stop the rest.
func (r *Runner) SendAppointmentReminders(ctx context.Context) error {
	today := r.today()
	appts, err := r.appointments.ListForDate(ctx, today.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("list tomorrow's appointments: %w", err)
	}
	var errs []error
	for _, a := range appts {
		if a.Status == scheduling.StatusCancelled {
			continue
		}
		err := r.notifier.Notify(ctx, a.UserID, notification.TemplateAppointmentReminder, map[string]string{
			"type":   a.Type,
			"doctor": a.DoctorName,
			"date":   scheduling.FormatDate(a.Date),
			"time":   a.Time,
		}, today, "")
		if err != nil {
			errs = append(errs, fmt.Errorf("appointment %s: %w", a.ID, err))
		}
	}
	zerolog.Ctx(ctx).Debug().Int("appointments", len(appts)).Int("failed", len(errs)).Msg("appointment reminders sent")
	return errors.Join(errs...)
}

// SweepPrescriptions expires prescriptions past their end date and warns
// patients whose prescription ends in DefaultReminderLeadDays.
func (r *Runner) SweepPrescriptions(ctx context.Context) error {
	today := r.today()
	expired, err := r.prescriptions.ExpireOverdue(ctx, today)
	if err != nil {
		return fmt.Errorf("expire prescriptions: %w", err)
	}
	ending, err := r.prescriptions.EndingOn(ctx, today.AddDate(0, 0, medication.DefaultReminderLeadDays))
	if err != nil {
		return fmt.Errorf("list ending prescriptions: %w", err)
	}
	var errs []error
	for _, p := range ending {
		endDate := ""
		if p.EndDate != nil {
			endDate = p.EndDate.Format(time.DateOnly)
		}
		err := r.notifier.Notify(ctx, p.UserID, notification.TemplateRefillReminder, map[string]string{
			"medication": p.MedicationName,
			"end_date":   endDate,
		}, today, "")
		if err != nil {
			errs = append(errs, fmt.Errorf("prescription %s: %w", p.ID, err))
		}
	}
	zerolog.Ctx(ctx).Debug().Int64("expired", expired).Int("refill_reminders", len(ending)-len(errs)).Msg("prescriptions swept")
	return errors.Join(errs...)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
