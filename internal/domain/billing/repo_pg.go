package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbot/clinic/internal/platform/db"
)

// =========== Bill Repository ===========

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

func (r *billRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

const billCols = `id, user_id, appointment_id, amount, description, status, due_date, created_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.UserID, &b.AppointmentID, &b.Amount, &b.Description,
		&b.Status, &b.DueDate, &b.CreatedAt)
	if db.NotFound(err) {
		return nil, ErrBillNotFound
	}
	return &b, err
}

func (r *billRepoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bills (id, user_id, appointment_id, amount, description, status, due_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		b.ID, b.UserID, b.AppointmentID, b.Amount, b.Description, b.Status, b.DueDate,
	).Scan(&b.CreatedAt)
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1`, id))
}

func (r *billRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]*Bill, error) {
	query := `SELECT ` + billCols + ` FROM bills WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY due_date, created_at`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *billRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE bills SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *billRepoPG) CancelByAppointment(ctx context.Context, appointmentID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bills SET status = $2 WHERE appointment_id = $1 AND status <> $2`,
		appointmentID, StatusCancelled)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// =========== Payment Repository ===========

type paymentRepoPG struct{ pool *pgxpool.Pool }

func NewPaymentRepoPG(pool *pgxpool.Pool) PaymentRepository { return &paymentRepoPG{pool: pool} }

func (r *paymentRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payment_transactions (id, bill_id, user_id, amount, payment_method, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		p.ID, p.BillID, p.UserID, p.Amount, p.Method, p.Status,
	).Scan(&p.CreatedAt)
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var p Payment
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, bill_id, user_id, amount, payment_method, status, created_at
		FROM payment_transactions WHERE id = $1`, id,
	).Scan(&p.ID, &p.BillID, &p.UserID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt)
	if db.NotFound(err) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// =========== Payment Plan Repository ===========

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository { return &planRepoPG{pool: pool} }

func (r *planRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

func (r *planRepoPG) Create(ctx context.Context, p *PaymentPlan) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payment_plans (id, bill_id, user_id, installments, installment_amount, final_installment, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		p.ID, p.BillID, p.UserID, p.Installments, p.InstallmentAmount, p.FinalInstallment, p.Status,
	).Scan(&p.CreatedAt)
	if db.UniqueViolation(err) {
		return ErrPlanExists
	}
	return err
}

func (r *planRepoPG) GetActiveByBill(ctx context.Context, billID uuid.UUID) (*PaymentPlan, error) {
	var p PaymentPlan
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, bill_id, user_id, installments, installment_amount, final_installment, status, created_at
		FROM payment_plans WHERE bill_id = $1 AND status = 'active'`, billID,
	).Scan(&p.ID, &p.BillID, &p.UserID, &p.Installments, &p.InstallmentAmount, &p.FinalInstallment,
		&p.Status, &p.CreatedAt)
	if db.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
