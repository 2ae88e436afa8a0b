package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
)

// transitions lists the states each status may move to. cancelled is terminal.
var transitions = map[Status][]Status{
	StatusScheduled:   {StatusConfirmed, StatusRescheduled, StatusCancelled},
	StatusConfirmed:   {StatusRescheduled, StatusCancelled},
	StatusRescheduled: {StatusRescheduled, StatusCancelled},
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

const (
	DoctorActive   = "active"
	DoctorInactive = "inactive"
)

// DefaultAppointmentType is used when a booking does not name one.
const DefaultAppointmentType = "General Checkup"

type Doctor struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Speciality string         `json:"speciality"`
	Schedule   WeeklySchedule `json:"schedule"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (d *Doctor) Active() bool { return d.Status == DoctorActive }

type Appointment struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	DoctorName string    `json:"doctor_name"`
	Date       time.Time `json:"appointment_date"`
	Time       string    `json:"appointment_time"`
	Type       string    `json:"appointment_type"`
	Status     Status    `json:"status"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Slot is one bookable start time with a doctor on a given day.
type Slot struct {
	Time   string `json:"time"`
	Doctor string `json:"doctor"`
}

type DaySlots struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// WeeklySchedule maps a lower-case weekday name to a working interval
// written as "HH:MM-HH:MM".
type WeeklySchedule map[string]string

// Hours returns the working interval for day. ok is false when the doctor
// does not work that day.
func (w WeeklySchedule) Hours(day time.Weekday) (iv Interval, ok bool, err error) {
	raw, ok := w[strings.ToLower(day.String())]
	if !ok {
		return Interval{}, false, nil
	}
	iv, err = ParseInterval(raw)
	if err != nil {
		return Interval{}, false, err
	}
	return iv, true, nil
}

// Validate checks every key is a weekday and every interval parses.
func (w WeeklySchedule) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("schedule must name at least one day")
	}
	days := make([]string, 0, len(w))
	for day := range w {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		if !isWeekday(day) {
			return fmt.Errorf("unknown weekday %q", day)
		}
		if _, err := ParseInterval(w[day]); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	return nil
}

func isWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return true
		}
	}
	return false
}

// Interval is a working window in minutes after midnight.
type Interval struct {
	Start int
	End   int
}

// Contains reports whether minute falls in [Start, End). The end of the
// working day is never a valid start time.
func (iv Interval) Contains(minute int) bool {
	return minute >= iv.Start && minute < iv.End
}

func ParseInterval(s string) (Interval, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Interval{}, fmt.Errorf("invalid interval %q", s)
	}
	start, err := ParseClock(from)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(to)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		return Interval{}, fmt.Errorf("interval %q ends before it starts", s)
	}
	return Interval{Start: start, End: end}, nil
}

// ParseClock parses "H:MM" or "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return hour*60 + minute, nil
}

func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
