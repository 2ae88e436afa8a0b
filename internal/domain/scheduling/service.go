package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbot/clinic/internal/domain/billing"
	"github.com/clinicbot/clinic/internal/platform/db"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorExists        = errors.New("doctor already exists")
	ErrDoctorUnavailable   = errors.New("doctor does not work on that day")
	ErrOutsideWorkingHours = errors.New("time is outside the doctor's working hours")
	ErrOutsideClinicHours  = errors.New("time is outside clinic hours (08:00-18:00)")
	ErrSlotTaken           = errors.New("slot is already booked")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("appointment cannot move to that status")
	ErrInvalidDate         = errors.New("invalid date, expected YYYY-MM-DD, today or tomorrow")
	ErrInvalidTime         = errors.New("invalid time, expected HH:MM")
	ErrPastDate            = errors.New("date is in the past")
)

// Biller creates and cancels the bill that accompanies each appointment.
// *billing.Service satisfies it.
type Biller interface {
	CreateForAppointment(ctx context.Context, b *billing.Bill) error
	CancelForAppointment(ctx context.Context, appointmentID uuid.UUID) (int64, error)
}

// Engine books appointments against doctors' weekly schedules.
type Engine struct {
	doctors      DoctorRepository
	appointments AppointmentRepository
	bills        Biller
	tx           db.Transactor
	now          func() time.Time
}

func NewEngine(doctors DoctorRepository, appointments AppointmentRepository, bills Biller, tx db.Transactor) *Engine {
	return &Engine{doctors: doctors, appointments: appointments, bills: bills, tx: tx, now: time.Now}
}

// WithClock replaces the clock used to resolve "today" and "tomorrow".
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) today() time.Time { return civilDate(e.now()) }

// -- Doctors --

func (e *Engine) ListDoctors(ctx context.Context, speciality string) ([]*Doctor, error) {
	return e.doctors.List(ctx, strings.TrimSpace(speciality), true)
}

func (e *Engine) GetDoctor(ctx context.Context, name string) (*Doctor, error) {
	return e.doctors.GetByName(ctx, NormalizeDoctorName(name))
}

func (e *Engine) CreateDoctor(ctx context.Context, d *Doctor) error {
	d.Name = NormalizeDoctorName(d.Name)
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(d.Speciality) == "" {
		return fmt.Errorf("speciality is required")
	}
	if err := d.Schedule.Validate(); err != nil {
		return err
	}
	if d.Status == "" {
		d.Status = DoctorActive
	}
	if d.Status != DoctorActive && d.Status != DoctorInactive {
		return fmt.Errorf("invalid doctor status: %s", d.Status)
	}
	return e.doctors.Create(ctx, d)
}

func (e *Engine) SetDoctorStatus(ctx context.Context, name, status string) error {
	if status != DoctorActive && status != DoctorInactive {
		return fmt.Errorf("invalid doctor status: %s", status)
	}
	return e.doctors.UpdateStatus(ctx, NormalizeDoctorName(name), status)
}

// -- Booking --

// ScheduleAppointment books doctorName at date and clock and raises the
// appointment bill in the same transaction.
func (e *Engine) ScheduleAppointment(ctx context.Context, userID uuid.UUID, doctorName, date, apptType, clock string) (*Appointment, error) {
	day, err := NormalizeDate(date, e.now())
	if err != nil {
		return nil, err
	}
	if day.Before(e.today()) {
		return nil, ErrPastDate
	}
	minute, err := ParseClock(clock)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(apptType) == "" {
		apptType = DefaultAppointmentType
	}

	doctor, err := e.doctors.GetByName(ctx, NormalizeDoctorName(doctorName))
	if err != nil {
		return nil, err
	}
	if !doctor.Active() {
		return nil, ErrDoctorNotFound
	}
	hours, works, err := doctor.Schedule.Hours(day.Weekday())
	if err != nil {
		return nil, fmt.Errorf("doctor %s schedule: %w", doctor.Name, err)
	}
	if !works {
		return nil, ErrDoctorUnavailable
	}
	if !hours.Contains(minute) {
		return nil, ErrOutsideWorkingHours
	}

	appt := &Appointment{
		UserID:     userID,
		DoctorName: doctor.Name,
		Date:       day,
		Time:       FormatClock(minute),
		Type:       strings.TrimSpace(apptType),
		Status:     StatusScheduled,
	}
	err = e.tx.WithinTx(ctx, func(ctx context.Context) error {
		taken, err := e.appointments.SlotTaken(ctx, appt.DoctorName, appt.Date, appt.Time, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		if err := e.appointments.Create(ctx, appt); err != nil {
			return err
		}
		bill := billing.NewAppointmentBill(userID, appt.ID, appt.Type, appt.Date)
		if err := e.bills.CreateForAppointment(ctx, bill); err != nil {
			return fmt.Errorf("create appointment bill: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (e *Engine) ownedAppointment(ctx context.Context, id, userID uuid.UUID) (*Appointment, error) {
	a, err := e.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

// CancelAppointment cancels the user's appointment and every bill raised
// for it.
func (e *Engine) CancelAppointment(ctx context.Context, id, userID uuid.UUID) error {
	return e.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := e.ownedAppointment(ctx, id, userID)
		if err != nil {
			return err
		}
		if !a.Status.CanTransition(StatusCancelled) {
			return ErrInvalidTransition
		}
		if err := e.appointments.UpdateStatus(ctx, a.ID, StatusCancelled); err != nil {
			return err
		}
		if _, err := e.bills.CancelForAppointment(ctx, a.ID); err != nil {
			return fmt.Errorf("cancel appointment bills: %w", err)
		}
		return nil
	})
}

// RescheduleAppointment moves the user's appointment to a new date and time
// with the same doctor.
func (e *Engine) RescheduleAppointment(ctx context.Context, id, userID uuid.UUID, newDate, newTime string) (*Appointment, error) {
	day, err := NormalizeDate(newDate, e.now())
	if err != nil {
		return nil, err
	}
	if day.Before(e.today()) {
		return nil, ErrPastDate
	}
	minute, err := ParseClock(newTime)
	if err != nil {
		return nil, err
	}
	if minute < ClinicOpens || minute > ClinicCloses {
		return nil, ErrOutsideClinicHours
	}
	clock := FormatClock(minute)

	var out *Appointment
	err = e.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := e.ownedAppointment(ctx, id, userID)
		if err != nil {
			return err
		}
		if !a.Status.CanTransition(StatusRescheduled) {
			return ErrInvalidTransition
		}
		taken, err := e.appointments.SlotTaken(ctx, a.DoctorName, day, clock, a.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		if err := e.appointments.Reschedule(ctx, a.ID, day, clock); err != nil {
			return err
		}
		a.Date, a.Time, a.Status = day, clock, StatusRescheduled
		a.UpdatedAt = e.now()
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmAppointment moves a scheduled appointment to confirmed.
func (e *Engine) ConfirmAppointment(ctx context.Context, id uuid.UUID) error {
	a, err := e.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !a.Status.CanTransition(StatusConfirmed) {
		return ErrInvalidTransition
	}
	return e.appointments.UpdateStatus(ctx, a.ID, StatusConfirmed)
}

// -- Availability --

// GetAvailableSlots lists the free slots of every active doctor working on
// date, ordered by time and then doctor.
func (e *Engine) GetAvailableSlots(ctx context.Context, date string) ([]Slot, error) {
	day, err := NormalizeDate(date, e.now())
	if err != nil {
		return nil, err
	}
	doctors, err := e.doctors.List(ctx, "", true)
	if err != nil {
		return nil, err
	}
	return e.slotsOn(ctx, day, doctors)
}

func (e *Engine) slotsOn(ctx context.Context, day time.Time, doctors []*Doctor) ([]Slot, error) {
	booked, err := e.appointments.BookedTimes(ctx, day)
	if err != nil {
		return nil, err
	}
	var out []Slot
	for _, d := range doctors {
		hours, works, err := d.Schedule.Hours(day.Weekday())
		if err != nil {
			return nil, fmt.Errorf("doctor %s schedule: %w", d.Name, err)
		}
		if !works {
			continue
		}
		for _, t := range WalkSlots(hours) {
			if booked[d.Name][t] {
				continue
			}
			out = append(out, Slot{Time: t, Doctor: d.Name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Doctor < out[j].Doctor
	})
	return out, nil
}

// MaxLookaheadDays caps NextAvailableSlots.
const MaxLookaheadDays = 30

// NextAvailableSlots returns free slots for today and the following days,
// skipping days with nothing open. days <= 0 means a week.
func (e *Engine) NextAvailableSlots(ctx context.Context, days int) ([]DaySlots, error) {
	if days <= 0 {
		days = 7
	}
	if days > MaxLookaheadDays {
		days = MaxLookaheadDays
	}
	doctors, err := e.doctors.List(ctx, "", true)
	if err != nil {
		return nil, err
	}
	start := e.today()
	var out []DaySlots
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		slots, err := e.slotsOn(ctx, day, doctors)
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			continue
		}
		out = append(out, DaySlots{Date: FormatDate(day), Slots: slots})
	}
	return out, nil
}

// -- Lookups --

func (e *Engine) GetAppointment(ctx context.Context, id, userID uuid.UUID) (*Appointment, error) {
	return e.ownedAppointment(ctx, id, userID)
}

func (e *Engine) ListAppointments(ctx context.Context, userID uuid.UUID) ([]*Appointment, error) {
	return e.appointments.ListByUser(ctx, userID, nil)
}

// ListUpcoming returns the user's non-cancelled appointments from today on.
func (e *Engine) ListUpcoming(ctx context.Context, userID uuid.UUID) ([]*Appointment, error) {
	today := e.today()
	return e.appointments.ListByUser(ctx, userID, &today)
}

// ListForDate returns every non-cancelled appointment on day.
func (e *Engine) ListForDate(ctx context.Context, day time.Time) ([]*Appointment, error) {
	return e.appointments.ListByDate(ctx, civilDate(day))
}
