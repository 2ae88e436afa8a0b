package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbot/clinic/internal/platform/db"
)

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

const doctorCols = `id, name, speciality, schedule, status, created_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Speciality, &d.Schedule, &d.Status, &d.CreatedAt)
	if db.NotFound(err) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) GetByName(ctx context.Context, name string) (*Doctor, error) {
	return scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE name = $1`, name))
}

func (r *doctorRepoPG) List(ctx context.Context, speciality string, activeOnly bool) ([]*Doctor, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE 1=1`
	var args []interface{}
	idx := 1
	if speciality != "" {
		query += fmt.Sprintf(` AND speciality ILIKE $%d`, idx)
		args = append(args, "%"+speciality+"%")
		idx++
	}
	if activeOnly {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, DoctorActive)
	}
	query += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, name, speciality, schedule, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		d.ID, d.Name, d.Speciality, d.Schedule, d.Status,
	).Scan(&d.CreatedAt)
	if db.UniqueViolation(err) {
		return ErrDoctorExists
	}
	return err
}

func (r *doctorRepoPG) UpdateStatus(ctx context.Context, name, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE doctors SET status = $2 WHERE name = $1`, name, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

const apptCols = `id, user_id, doctor_name, appointment_date, appointment_time, appointment_type,
	status, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.DoctorName, &a.Date, &a.Time, &a.Type,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if db.NotFound(err) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, user_id, doctor_name, appointment_date, appointment_time,
			appointment_type, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.DoctorName, a.Date, a.Time, a.Type, a.Status, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.UniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) SlotTaken(ctx context.Context, doctor string, date time.Time, clock string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_name = $1 AND appointment_date = $2 AND appointment_time = $3
			  AND status <> 'cancelled' AND id <> $4
		)`, doctor, date, clock, excludeID,
	).Scan(&taken)
	return taken, err
}

func (r *appointmentRepoPG) BookedTimes(ctx context.Context, date time.Time) (map[string]map[string]bool, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT doctor_name, appointment_time FROM appointments
		WHERE appointment_date = $1 AND status <> 'cancelled'`, date)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	defer rows.Close()
	out := make(map[string]map[string]bool)
	for rows.Next() {
		var doctor, clock string
		if err := rows.Scan(&doctor, &clock); err != nil {
			return nil, err
		}
		if out[doctor] == nil {
			out[doctor] = make(map[string]bool)
		}
		out[doctor][clock] = true
	}
	return out, rows.Err()
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, clock string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments
		SET appointment_date = $2, appointment_time = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'`,
		id, date, clock, StatusRescheduled)
	if db.UniqueViolation(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, from *time.Time) ([]*Appointment, error) {
	if from == nil {
		return r.list(ctx, `SELECT `+apptCols+` FROM appointments
			WHERE user_id = $1 ORDER BY appointment_date, appointment_time`, userID)
	}
	return r.list(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE user_id = $1 AND appointment_date >= $2 AND status <> 'cancelled'
		ORDER BY appointment_date, appointment_time`, userID, *from)
}

func (r *appointmentRepoPG) ListByDate(ctx context.Context, date time.Time) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+apptCols+` FROM appointments
		WHERE appointment_date = $1 AND status <> 'cancelled'
		ORDER BY appointment_time, doctor_name`, date)
}
