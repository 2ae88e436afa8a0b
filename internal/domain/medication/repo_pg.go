package medication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbot/clinic/internal/platform/db"
)

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

func (r *prescriptionRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

const rxCols = `id, user_id, medication_name, dosage, frequency, start_date, end_date,
	refills_remaining, side_effects, status, refill_of, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.UserID, &p.MedicationName, &p.Dosage, &p.Frequency,
		&p.StartDate, &p.EndDate, &p.RefillsRemaining, &p.SideEffects, &p.Status,
		&p.RefillOf, &p.CreatedAt)
	if db.NotFound(err) {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (id, user_id, medication_name, dosage, frequency, start_date,
			end_date, refills_remaining, side_effects, status, refill_of)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		p.ID, p.UserID, p.MedicationName, p.Dosage, p.Frequency, p.StartDate,
		p.EndDate, p.RefillsRemaining, p.SideEffects, p.Status, p.RefillOf,
	).Scan(&p.CreatedAt)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *prescriptionRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, activeOn *time.Time) ([]*Prescription, error) {
	if activeOn == nil {
		return r.list(ctx, `SELECT `+rxCols+` FROM prescriptions
			WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	}
	return r.list(ctx, `SELECT `+rxCols+` FROM prescriptions
		WHERE user_id = $1 AND status = $2 AND (end_date IS NULL OR end_date >= $3)
		ORDER BY created_at DESC`, userID, StatusActive, *activeOn)
}

func (r *prescriptionRepoPG) DecrementRefills(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET refills_remaining = refills_remaining - 1
		WHERE id = $1 AND refills_remaining > 0`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRefillsLeft
	}
	return nil
}

func (r *prescriptionRepoPG) ExpireBefore(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET status = $1
		WHERE status = $2 AND end_date < $3`, StatusExpired, StatusActive, day)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *prescriptionRepoPG) ListEndingOn(ctx context.Context, day time.Time) ([]*Prescription, error) {
	return r.list(ctx, `SELECT `+rxCols+` FROM prescriptions
		WHERE status = $1 AND end_date = $2 ORDER BY created_at`, StatusActive, day)
}
