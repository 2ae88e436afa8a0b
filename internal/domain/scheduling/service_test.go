package scheduling

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbot/clinic/internal/domain/billing"
)

// -- Mock Repositories --

type mockDoctorRepo struct {
	doctors map[string]*Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[string]*Doctor)}
}

func (m *mockDoctorRepo) GetByName(_ context.Context, name string) (*Doctor, error) {
	d, ok := m.doctors[name]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return d, nil
}

func (m *mockDoctorRepo) List(_ context.Context, speciality string, activeOnly bool) ([]*Doctor, error) {
	var out []*Doctor
	for _, d := range m.doctors {
		if activeOnly && !d.Active() {
			continue
		}
		if speciality != "" && !strings.Contains(strings.ToLower(d.Speciality), strings.ToLower(speciality)) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.Name]; ok {
		return ErrDoctorExists
	}
	d.ID = uuid.New()
	m.doctors[d.Name] = d
	return nil
}

func (m *mockDoctorRepo) UpdateStatus(_ context.Context, name, status string) error {
	d, ok := m.doctors[name]
	if !ok {
		return ErrDoctorNotFound
	}
	d.Status = status
	return nil
}

type mockAppointmentRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) SlotTaken(_ context.Context, doctor string, date time.Time, clock string, excludeID uuid.UUID) (bool, error) {
	for _, a := range m.appts {
		if a.ID != excludeID && a.DoctorName == doctor && a.Date.Equal(date) && a.Time == clock && a.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAppointmentRepo) BookedTimes(_ context.Context, date time.Time) (map[string]map[string]bool, error) {
	out := make(map[string]map[string]bool)
	for _, a := range m.appts {
		if !a.Date.Equal(date) || a.Status == StatusCancelled {
			continue
		}
		if out[a.DoctorName] == nil {
			out[a.DoctorName] = make(map[string]bool)
		}
		out[a.DoctorName][a.Time] = true
	}
	return out, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	a, ok := m.appts[id]
	if !ok || a.Status == StatusCancelled {
		return ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) Reschedule(_ context.Context, id uuid.UUID, date time.Time, clock string) error {
	a, ok := m.appts[id]
	if !ok || a.Status == StatusCancelled {
		return ErrAppointmentNotFound
	}
	a.Date, a.Time, a.Status = date, clock, StatusRescheduled
	return nil
}

func (m *mockAppointmentRepo) ListByUser(_ context.Context, userID uuid.UUID, from *time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.UserID != userID {
			continue
		}
		if from != nil && (a.Date.Before(*from) || a.Status == StatusCancelled) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAppointmentRepo) ListByDate(_ context.Context, date time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.Date.Equal(date) && a.Status != StatusCancelled {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockBiller struct {
	bills     []*billing.Bill
	cancelled []uuid.UUID
	fail      error
}

func (m *mockBiller) CreateForAppointment(_ context.Context, b *billing.Bill) error {
	if m.fail != nil {
		return m.fail
	}
	b.ID = uuid.New()
	m.bills = append(m.bills, b)
	return nil
}

func (m *mockBiller) CancelForAppointment(_ context.Context, appointmentID uuid.UUID) (int64, error) {
	var n int64
	for _, b := range m.bills {
		if b.AppointmentID != nil && *b.AppointmentID == appointmentID && b.Status != billing.StatusCancelled {
			b.Status = billing.StatusCancelled
			n++
		}
	}
	m.cancelled = append(m.cancelled, appointmentID)
	return n, nil
}

// mockTx restores the appointment map when fn fails, standing in for a
// rollback.
type mockTx struct {
	appts *mockAppointmentRepo
}

func (m *mockTx) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	snapshot := make(map[uuid.UUID]Appointment, len(m.appts.appts))
	for id, a := range m.appts.appts {
		snapshot[id] = *a
	}
	if err := fn(ctx); err != nil {
		m.appts.appts = make(map[uuid.UUID]*Appointment, len(snapshot))
		for id, a := range snapshot {
			a := a
			m.appts.appts[id] = &a
		}
		return err
	}
	return nil
}

// Wednesday 1 May 2024, 10:00 UTC.
var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

const (
	nextMonday  = "2024-05-06"
	nextTuesday = "2024-05-07"
)

type testEnv struct {
	engine  *Engine
	doctors *mockDoctorRepo
	appts   *mockAppointmentRepo
	biller  *mockBiller
}

func newTestEngine() *testEnv {
	doctors := newMockDoctorRepo()
	for _, d := range []*Doctor{
		{Name: "Smith", Speciality: "General Practice", Status: DoctorActive, Schedule: WeeklySchedule{
			"monday": "09:00-17:00", "tuesday": "09:00-17:00", "wednesday": "09:00-17:00",
			"thursday": "09:00-17:00", "friday": "09:00-17:00", "saturday": "09:00-17:00", "sunday": "09:00-17:00",
		}},
		{Name: "Johnson", Speciality: "Cardiology", Status: DoctorActive, Schedule: WeeklySchedule{
			"monday": "10:00-18:00", "tuesday": "10:00-18:00",
		}},
		{Name: "Davis", Speciality: "General Practice", Status: DoctorActive, Schedule: WeeklySchedule{
			"monday": "09:00-17:00", "wednesday": "09:00-17:00", "friday": "09:00-17:00",
		}},
		{Name: "Brown", Speciality: "Dermatology", Status: DoctorInactive, Schedule: WeeklySchedule{
			"monday": "09:00-12:00",
		}},
	} {
		d.ID = uuid.New()
		doctors.doctors[d.Name] = d
	}
	appts := newMockAppointmentRepo()
	biller := &mockBiller{}
	engine := NewEngine(doctors, appts, biller, &mockTx{appts: appts}).
		WithClock(func() time.Time { return fixedNow })
	return &testEnv{engine: engine, doctors: doctors, appts: appts, biller: biller}
}

func (e *testEnv) book(t *testing.T, userID uuid.UUID, doctor, date, clock string) *Appointment {
	t.Helper()
	a, err := e.engine.ScheduleAppointment(context.Background(), userID, doctor, date, "", clock)
	if err != nil {
		t.Fatalf("book %s %s %s: %v", doctor, date, clock, err)
	}
	return a
}

// -- Scheduling --

func TestScheduleAppointment_Success(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()

	a, err := env.engine.ScheduleAppointment(context.Background(), uid, "dr. smith", nextMonday, "General Checkup", "9:00")
	if err != nil {
		t.Fatalf("ScheduleAppointment: %v", err)
	}
	if a.DoctorName != "Smith" || a.Time != "09:00" || a.Status != StatusScheduled {
		t.Errorf("unexpected appointment %+v", a)
	}
	if _, ok := env.appts.appts[a.ID]; !ok {
		t.Error("appointment was not stored")
	}
}

func TestScheduleAppointment_CreatesBill(t *testing.T) {
	tests := []struct {
		typ    string
		amount float64
	}{
		{"General Checkup", 150.00},
		{"Specialist Consultation", 200.00},
		{"", 150.00},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			env := newTestEngine()
			uid := uuid.New()
			a, err := env.engine.ScheduleAppointment(context.Background(), uid, "Smith", nextMonday, tt.typ, "10:00")
			if err != nil {
				t.Fatalf("ScheduleAppointment: %v", err)
			}
			if len(env.biller.bills) != 1 {
				t.Fatalf("expected one bill, got %d", len(env.biller.bills))
			}
			b := env.biller.bills[0]
			if b.Amount != tt.amount {
				t.Errorf("expected amount %v, got %v", tt.amount, b.Amount)
			}
			if want := a.Date.AddDate(0, 0, 30); !b.DueDate.Equal(want) {
				t.Errorf("expected due %v, got %v", want, b.DueDate)
			}
			if b.UserID != uid || b.AppointmentID == nil || *b.AppointmentID != a.ID {
				t.Error("bill does not reference the appointment")
			}
		})
	}
}

func TestScheduleAppointment_BillFailureRollsBack(t *testing.T) {
	env := newTestEngine()
	env.biller.fail = errors.New("insert bill")

	_, err := env.engine.ScheduleAppointment(context.Background(), uuid.New(), "Smith", nextMonday, "", "09:00")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(env.appts.appts) != 0 {
		t.Errorf("expected appointment to be rolled back, found %d", len(env.appts.appts))
	}
}

func TestScheduleAppointment_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		doctor  string
		date    string
		clock   string
		wantErr error
	}{
		{"unknown doctor", "Nobody", nextMonday, "09:00", ErrDoctorNotFound},
		{"inactive doctor", "Brown", nextMonday, "09:00", ErrDoctorNotFound},
		{"day off", "Davis", nextTuesday, "10:00", ErrDoctorUnavailable},
		{"before hours", "Smith", nextMonday, "08:30", ErrOutsideWorkingHours},
		{"end of day", "Smith", nextMonday, "17:00", ErrOutsideWorkingHours},
		{"bad date", "Smith", "someday", "09:00", ErrInvalidDate},
		{"bad time", "Smith", nextMonday, "nine", ErrInvalidTime},
		{"past date", "Smith", "2024-04-30", "09:00", ErrPastDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEngine()
			_, err := env.engine.ScheduleAppointment(context.Background(), uuid.New(), tt.doctor, tt.date, "", tt.clock)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(env.biller.bills) != 0 {
				t.Error("no bill should be created on failure")
			}
		})
	}
}

func TestScheduleAppointment_SmithMondayBoundary(t *testing.T) {
	env := newTestEngine()
	ctx := context.Background()

	if _, err := env.engine.ScheduleAppointment(ctx, uuid.New(), "smith", nextMonday, "", "09:00"); err != nil {
		t.Errorf("09:00 should be bookable: %v", err)
	}
	if _, err := env.engine.ScheduleAppointment(ctx, uuid.New(), "smith", nextMonday, "", "17:00"); !errors.Is(err, ErrOutsideWorkingHours) {
		t.Errorf("17:00 should be rejected, got %v", err)
	}
}

func TestScheduleAppointment_EveryDayOffRejected(t *testing.T) {
	env := newTestEngine()
	// Davis does not work Tuesday, Thursday, Saturday or Sunday.
	for _, date := range []string{"2024-05-07", "2024-05-09", "2024-05-11", "2024-05-12"} {
		_, err := env.engine.ScheduleAppointment(context.Background(), uuid.New(), "Davis", date, "", "10:00")
		if !errors.Is(err, ErrDoctorUnavailable) {
			t.Errorf("%s: expected ErrDoctorUnavailable, got %v", date, err)
		}
	}
}

func TestScheduleAppointment_Tomorrow(t *testing.T) {
	env := newTestEngine()
	a := env.book(t, uuid.New(), "Smith", "tomorrow", "11:00")
	if FormatDate(a.Date) != "2024-05-02" {
		t.Errorf("expected 2024-05-02, got %s", FormatDate(a.Date))
	}
}

func TestScheduleAppointment_DoubleBooking(t *testing.T) {
	env := newTestEngine()
	ctx := context.Background()
	env.book(t, uuid.New(), "Smith", nextMonday, "09:00")

	_, err := env.engine.ScheduleAppointment(ctx, uuid.New(), "Smith", nextMonday, "", "09:00")
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if len(env.biller.bills) != 1 {
		t.Errorf("expected only the first bill, got %d", len(env.biller.bills))
	}

	// Another doctor at the same time is fine.
	if _, err := env.engine.ScheduleAppointment(ctx, uuid.New(), "Davis", nextMonday, "", "09:00"); err != nil {
		t.Errorf("different doctor should be bookable: %v", err)
	}
}

func TestScheduleAppointment_CancelledSlotIsReusable(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	a := env.book(t, uid, "Smith", nextMonday, "09:00")
	if err := env.engine.CancelAppointment(context.Background(), a.ID, uid); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	env.book(t, uuid.New(), "Smith", nextMonday, "09:00")
}

// -- Cancel --

func TestCancelAppointment(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	a := env.book(t, uid, "Smith", nextMonday, "09:00")
	ctx := context.Background()

	if err := env.engine.CancelAppointment(ctx, a.ID, uid); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if env.appts.appts[a.ID].Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", env.appts.appts[a.ID].Status)
	}
	if env.biller.bills[0].Status != billing.StatusCancelled {
		t.Errorf("expected bill CANCELLED, got %s", env.biller.bills[0].Status)
	}

	if err := env.engine.CancelAppointment(ctx, a.ID, uid); err == nil {
		t.Error("second cancel should fail")
	}
	if env.appts.appts[a.ID].Status != StatusCancelled {
		t.Error("status should remain cancelled")
	}
}

func TestCancelAppointment_NotOwned(t *testing.T) {
	env := newTestEngine()
	a := env.book(t, uuid.New(), "Smith", nextMonday, "09:00")

	err := env.engine.CancelAppointment(context.Background(), a.ID, uuid.New())
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
	if env.appts.appts[a.ID].Status != StatusScheduled {
		t.Error("appointment should be untouched")
	}
	if err := env.engine.CancelAppointment(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound for unknown id, got %v", err)
	}
}

// -- Reschedule --

func TestRescheduleAppointment(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	a := env.book(t, uid, "Smith", nextMonday, "09:00")

	got, err := env.engine.RescheduleAppointment(context.Background(), a.ID, uid, nextTuesday, "14:30")
	if err != nil {
		t.Fatalf("RescheduleAppointment: %v", err)
	}
	if got.Status != StatusRescheduled || got.Time != "14:30" || FormatDate(got.Date) != nextTuesday {
		t.Errorf("unexpected result %+v", got)
	}
	stored := env.appts.appts[a.ID]
	if stored.Status != StatusRescheduled || stored.Time != "14:30" {
		t.Errorf("store not updated: %+v", stored)
	}
}

func TestRescheduleAppointment_ClinicHours(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	a := env.book(t, uid, "Smith", nextMonday, "09:00")
	ctx := context.Background()

	for _, clock := range []string{"07:59", "18:01", "20:00"} {
		if _, err := env.engine.RescheduleAppointment(ctx, a.ID, uid, nextMonday, clock); !errors.Is(err, ErrOutsideClinicHours) {
			t.Errorf("%s: expected ErrOutsideClinicHours, got %v", clock, err)
		}
	}
	for _, clock := range []string{"08:00", "18:00"} {
		if _, err := env.engine.RescheduleAppointment(ctx, a.ID, uid, nextMonday, clock); err != nil {
			t.Errorf("%s: expected success, got %v", clock, err)
		}
	}
}

func TestRescheduleAppointment_ConflictIsPerDoctor(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	ctx := context.Background()
	a := env.book(t, uid, "Smith", nextMonday, "09:00")
	env.book(t, uuid.New(), "Smith", nextMonday, "10:00")
	env.book(t, uuid.New(), "Davis", nextMonday, "11:00")

	if _, err := env.engine.RescheduleAppointment(ctx, a.ID, uid, nextMonday, "10:00"); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken for Smith's own booking, got %v", err)
	}
	if _, err := env.engine.RescheduleAppointment(ctx, a.ID, uid, nextMonday, "11:00"); err != nil {
		t.Errorf("another doctor's booking should not block: %v", err)
	}
}

func TestRescheduleAppointment_CancelledOrForeign(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	ctx := context.Background()
	a := env.book(t, uid, "Smith", nextMonday, "09:00")

	if _, err := env.engine.RescheduleAppointment(ctx, a.ID, uuid.New(), nextMonday, "10:00"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
	if err := env.engine.CancelAppointment(ctx, a.ID, uid); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := env.engine.RescheduleAppointment(ctx, a.ID, uid, nextMonday, "10:00"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// -- Confirm --

func TestConfirmAppointment(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	ctx := context.Background()
	a := env.book(t, uid, "Smith", nextMonday, "09:00")

	if err := env.engine.ConfirmAppointment(ctx, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if env.appts.appts[a.ID].Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", env.appts.appts[a.ID].Status)
	}
	if err := env.engine.ConfirmAppointment(ctx, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second confirm: expected ErrInvalidTransition, got %v", err)
	}
}

// -- Availability --

func TestGetAvailableSlots_ExcludesBooked(t *testing.T) {
	env := newTestEngine()
	env.book(t, uuid.New(), "Smith", nextMonday, "09:00")
	env.book(t, uuid.New(), "Johnson", nextMonday, "12:30")

	slots, err := env.engine.GetAvailableSlots(context.Background(), nextMonday)
	if err != nil {
		t.Fatalf("GetAvailableSlots: %v", err)
	}
	counts := make(map[string]int)
	for _, s := range slots {
		counts[s.Doctor]++
		if (s.Doctor == "Smith" && s.Time == "09:00") || (s.Doctor == "Johnson" && s.Time == "12:30") {
			t.Errorf("booked slot %+v was offered", s)
		}
		if s.Doctor == "Smith" && s.Time == "17:00" {
			t.Error("end of day offered as a slot")
		}
	}
	if counts["Smith"] != 15 || counts["Johnson"] != 15 || counts["Davis"] != 16 {
		t.Errorf("unexpected slot counts %v", counts)
	}
	if counts["Brown"] != 0 {
		t.Error("inactive doctor offered slots")
	}
	for i := 1; i < len(slots); i++ {
		if slots[i-1].Time > slots[i].Time {
			t.Fatalf("slots not ordered by time at %d", i)
		}
	}
}

func TestGetAvailableSlots_EveryOfferedSlotIsBookable(t *testing.T) {
	env := newTestEngine()
	slots, err := env.engine.GetAvailableSlots(context.Background(), nextTuesday)
	if err != nil {
		t.Fatalf("GetAvailableSlots: %v", err)
	}
	for _, s := range slots {
		if _, err := env.engine.ScheduleAppointment(context.Background(), uuid.New(), s.Doctor, nextTuesday, "", s.Time); err != nil {
			t.Fatalf("offered slot %+v not bookable: %v", s, err)
		}
	}
	left, _ := env.engine.GetAvailableSlots(context.Background(), nextTuesday)
	if len(left) != 0 {
		t.Errorf("expected a fully booked day, %d slots left", len(left))
	}
}

func TestNextAvailableSlots(t *testing.T) {
	env := newTestEngine()
	days, err := env.engine.NextAvailableSlots(context.Background(), 3)
	if err != nil {
		t.Fatalf("NextAvailableSlots: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[0].Date != "2024-05-01" || days[2].Date != "2024-05-03" {
		t.Errorf("unexpected dates %s..%s", days[0].Date, days[2].Date)
	}

	// With only Brown (inactive) left, every day is empty.
	for name := range env.doctors.doctors {
		if name != "Brown" {
			delete(env.doctors.doctors, name)
		}
	}
	days, err = env.engine.NextAvailableSlots(context.Background(), 0)
	if err != nil || len(days) != 0 {
		t.Errorf("expected no open days, got %d (%v)", len(days), err)
	}
}

// -- Lookups --

func TestListUpcoming(t *testing.T) {
	env := newTestEngine()
	uid := uuid.New()
	keep := env.book(t, uid, "Smith", nextMonday, "09:00")
	drop := env.book(t, uid, "Smith", nextMonday, "10:00")
	env.book(t, uuid.New(), "Smith", nextMonday, "11:00")
	if err := env.engine.CancelAppointment(context.Background(), drop.ID, uid); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	items, err := env.engine.ListUpcoming(context.Background(), uid)
	if err != nil {
		t.Fatalf("ListUpcoming: %v", err)
	}
	if len(items) != 1 || items[0].ID != keep.ID {
		t.Errorf("expected only the active appointment, got %d", len(items))
	}

	all, _ := env.engine.ListAppointments(context.Background(), uid)
	if len(all) != 2 {
		t.Errorf("expected 2 appointments in history, got %d", len(all))
	}
}

// -- Doctors --

func TestCreateDoctor(t *testing.T) {
	env := newTestEngine()
	ctx := context.Background()

	d := &Doctor{Name: "dr. garcia", Speciality: "Pediatrics", Schedule: WeeklySchedule{"monday": "08:00-12:00"}}
	if err := env.engine.CreateDoctor(ctx, d); err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}
	if d.Name != "Garcia" || d.Status != DoctorActive {
		t.Errorf("unexpected doctor %+v", d)
	}
	if err := env.engine.CreateDoctor(ctx, &Doctor{Name: "Garcia", Speciality: "X", Schedule: WeeklySchedule{"monday": "08:00-12:00"}}); !errors.Is(err, ErrDoctorExists) {
		t.Errorf("expected ErrDoctorExists, got %v", err)
	}
	if err := env.engine.CreateDoctor(ctx, &Doctor{Name: "Lee", Speciality: "X", Schedule: WeeklySchedule{"monday": "noon"}}); err == nil {
		t.Error("expected schedule validation error")
	}
}

func TestSetDoctorStatus(t *testing.T) {
	env := newTestEngine()
	ctx := context.Background()

	if err := env.engine.SetDoctorStatus(ctx, "smith", DoctorInactive); err != nil {
		t.Fatalf("SetDoctorStatus: %v", err)
	}
	if _, err := env.engine.ScheduleAppointment(ctx, uuid.New(), "Smith", nextMonday, "", "09:00"); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("inactive doctor should not be bookable, got %v", err)
	}
	if err := env.engine.SetDoctorStatus(ctx, "smith", "retired"); err == nil {
		t.Error("expected invalid status error")
	}
}

func TestListDoctors_BySpeciality(t *testing.T) {
	env := newTestEngine()
	docs, err := env.engine.ListDoctors(context.Background(), "cardio")
	if err != nil {
		t.Fatalf("ListDoctors: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "Johnson" {
		t.Errorf("expected Johnson, got %v", docs)
	}
	all, _ := env.engine.ListDoctors(context.Background(), "")
	if len(all) != 3 {
		t.Errorf("expected 3 active doctors, got %d", len(all))
	}
}
