package billing

import (
	"context"

	"github.com/google/uuid"
)

type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// ListByUser returns the user's bills, optionally filtered by status,
	// ordered by due date.
	ListByUser(ctx context.Context, userID uuid.UUID, status string) ([]*Bill, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// CancelByAppointment marks every bill for the appointment CANCELLED and
	// returns how many rows changed.
	CancelByAppointment(ctx context.Context, appointmentID uuid.UUID) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
}

type PlanRepository interface {
	Create(ctx context.Context, p *PaymentPlan) error
	GetActiveByBill(ctx context.Context, billID uuid.UUID) (*PaymentPlan, error)
}
