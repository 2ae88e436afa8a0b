package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbot/clinic/internal/platform/db"
)

// =========== Health Record Repository ===========

type healthRecordRepoPG struct{ pool *pgxpool.Pool }

func NewHealthRecordRepoPG(pool *pgxpool.Pool) HealthRecordRepository {
	return &healthRecordRepoPG{pool: pool}
}

func (r *healthRecordRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

func (r *healthRecordRepoPG) Create(ctx context.Context, rec *HealthRecord) error {
	rec.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_records (id, user_id, record_type, record_date, description, results)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		rec.ID, rec.UserID, rec.RecordType, rec.RecordDate, rec.Description, rec.Results,
	).Scan(&rec.CreatedAt)
}

func (r *healthRecordRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, recordType string, limit int) ([]*HealthRecord, error) {
	query := `SELECT id, user_id, record_type, record_date, description, results, created_at
		FROM health_records WHERE user_id = $1`
	args := []interface{}{userID}
	idx := 2
	if recordType != "" {
		query += fmt.Sprintf(` AND record_type = $%d`, idx)
		args = append(args, recordType)
		idx++
	}
	query += ` ORDER BY record_date DESC, created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, idx)
		args = append(args, limit)
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}
	defer rows.Close()
	var items []*HealthRecord
	for rows.Next() {
		var h HealthRecord
		if err := rows.Scan(&h.ID, &h.UserID, &h.RecordType, &h.RecordDate,
			&h.Description, &h.Results, &h.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &h)
	}
	return items, rows.Err()
}

func (r *healthRecordRepoPG) CountByType(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT record_type, COUNT(*) FROM health_records
		WHERE user_id = $1 GROUP BY record_type`, userID)
	if err != nil {
		return nil, fmt.Errorf("count health records: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		out[typ] = n
	}
	return out, rows.Err()
}

// =========== Reminder Repository ===========

type reminderRepoPG struct{ pool *pgxpool.Pool }

func NewReminderRepoPG(pool *pgxpool.Pool) ReminderRepository { return &reminderRepoPG{pool: pool} }

func (r *reminderRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

const reminderCols = `id, user_id, reminder_type, reminder_date, reminder_time, description,
	is_recurring, recurrence_pattern, status, created_at`

func scanReminder(row pgx.Row) (*Reminder, error) {
	var m Reminder
	err := row.Scan(&m.ID, &m.UserID, &m.ReminderType, &m.ReminderDate, &m.ReminderTime,
		&m.Description, &m.IsRecurring, &m.RecurrencePattern, &m.Status, &m.CreatedAt)
	return &m, err
}

func (r *reminderRepoPG) Create(ctx context.Context, m *Reminder) error {
	m.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_reminders (id, user_id, reminder_type, reminder_date, reminder_time,
			description, is_recurring, recurrence_pattern, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		m.ID, m.UserID, m.ReminderType, m.ReminderDate, m.ReminderTime,
		m.Description, m.IsRecurring, m.RecurrencePattern, m.Status,
	).Scan(&m.CreatedAt)
}

func (r *reminderRepoPG) ListUpcoming(ctx context.Context, userID uuid.UUID, from time.Time) ([]*Reminder, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reminderCols+` FROM health_reminders
		WHERE user_id = $1 AND reminder_date >= $2 AND status <> $3
		ORDER BY reminder_date, reminder_time NULLS FIRST`, userID, from, ReminderDismissed)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	var items []*Reminder
	for rows.Next() {
		m, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *reminderRepoPG) Dismiss(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE health_reminders SET status = $3
		WHERE id = $1 AND user_id = $2`, id, userID, ReminderDismissed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// =========== Post-Care Repository ===========

type postCareRepoPG struct{ pool *pgxpool.Pool }

func NewPostCareRepoPG(pool *pgxpool.Pool) PostCareRepository { return &postCareRepoPG{pool: pool} }

func (r *postCareRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

func (r *postCareRepoPG) Create(ctx context.Context, p *PostCareInstruction) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO post_care_instructions (id, user_id, procedure_type, instructions, instruction_date)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		p.ID, p.UserID, p.ProcedureType, p.Instructions, p.InstructionDate,
	).Scan(&p.CreatedAt)
}

func (r *postCareRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, procedure string) ([]*PostCareInstruction, error) {
	query := `SELECT id, user_id, procedure_type, instructions, instruction_date, created_at
		FROM post_care_instructions WHERE user_id = $1`
	args := []interface{}{userID}
	if procedure != "" {
		query += ` AND procedure_type ILIKE $2`
		args = append(args, procedure)
	}
	query += ` ORDER BY instruction_date DESC, created_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list post-care instructions: %w", err)
	}
	defer rows.Close()
	var items []*PostCareInstruction
	for rows.Next() {
		var p PostCareInstruction
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProcedureType, &p.Instructions,
			&p.InstructionDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}
