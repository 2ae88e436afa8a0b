package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicbot/clinic/internal/platform/db"
)

var (
	ErrBillNotFound        = errors.New("bill not found")
	ErrBillNotPending      = errors.New("bill is not pending")
	ErrInsufficientAmount  = errors.New("payment amount is less than the bill amount")
	ErrInvalidInstallments = errors.New("installments must be between 2 and 12")
	ErrPlanExists          = errors.New("bill already has an active payment plan")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrInvalidMethod       = errors.New("invalid payment method")
)

var validMethods = map[string]bool{
	"card": true, "cash": true, "bank_transfer": true, "insurance": true,
}

type Service struct {
	bills    BillRepository
	payments PaymentRepository
	plans    PlanRepository
	tx       db.Transactor
}

func NewService(bills BillRepository, payments PaymentRepository, plans PlanRepository, tx db.Transactor) *Service {
	return &Service{bills: bills, payments: payments, plans: plans, tx: tx}
}

// CreateForAppointment persists an appointment bill. Callers scheduling an
// appointment run it inside their own transaction.
func (s *Service) CreateForAppointment(ctx context.Context, b *Bill) error {
	if b.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if b.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return s.bills.Create(ctx, b)
}

func (s *Service) CancelForAppointment(ctx context.Context, appointmentID uuid.UUID) (int64, error) {
	return s.bills.CancelByAppointment(ctx, appointmentID)
}

func (s *Service) ListBills(ctx context.Context, userID uuid.UUID) ([]*Bill, error) {
	return s.bills.ListByUser(ctx, userID, "")
}

// ListOutstanding returns the user's pending bills and their total.
func (s *Service) ListOutstanding(ctx context.Context, userID uuid.UUID) (*Outstanding, error) {
	bills, err := s.bills.ListByUser(ctx, userID, StatusPending)
	if err != nil {
		return nil, err
	}
	out := &Outstanding{Bills: bills}
	for _, b := range bills {
		out.Total += b.Amount
	}
	out.Total = roundCents(out.Total)
	return out, nil
}

func (s *Service) ownedBill(ctx context.Context, userID, billID uuid.UUID) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrBillNotFound
	}
	return b, nil
}

// ProcessPayment settles a pending bill in full and records the transaction.
func (s *Service) ProcessPayment(ctx context.Context, userID, billID uuid.UUID, amount float64, method string) (*Receipt, error) {
	if method == "" {
		method = "card"
	}
	if !validMethods[method] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	var receipt *Receipt
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.ownedBill(ctx, userID, billID)
		if err != nil {
			return err
		}
		if b.Status != StatusPending {
			return ErrBillNotPending
		}
		if roundCents(amount) < b.Amount {
			return ErrInsufficientAmount
		}
		if err := s.bills.UpdateStatus(ctx, b.ID, StatusPaid); err != nil {
			return err
		}
		p := &Payment{BillID: b.ID, UserID: userID, Amount: roundCents(amount), Method: method, Status: "completed"}
		if err := s.payments.Create(ctx, p); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		receipt = &Receipt{
			Payment:     p,
			Description: b.Description,
			BillAmount:  b.Amount,
			Change:      roundCents(p.Amount - b.Amount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// SetupPaymentPlan splits a pending bill into installments. All but the
// last are equal; the last absorbs the rounding remainder. A bill has at
// most one active plan, enforced by a partial unique index as well.
func (s *Service) SetupPaymentPlan(ctx context.Context, userID, billID uuid.UUID, installments int) (*PaymentPlan, error) {
	if installments < 2 || installments > 12 {
		return nil, ErrInvalidInstallments
	}

	var plan *PaymentPlan
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.ownedBill(ctx, userID, billID)
		if err != nil {
			return err
		}
		if b.Status != StatusPending {
			return ErrBillNotPending
		}
		existing, err := s.plans.GetActiveByBill(ctx, billID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrPlanExists
		}

		each := roundCents(b.Amount / float64(installments))
		plan = &PaymentPlan{
			BillID:            billID,
			UserID:            userID,
			Installments:      installments,
			InstallmentAmount: each,
			FinalInstallment:  roundCents(b.Amount - each*float64(installments-1)),
			Status:            "active",
		}
		return s.plans.Create(ctx, plan)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) GetReceipt(ctx context.Context, userID, paymentID uuid.UUID) (*Receipt, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	b, err := s.bills.GetByID(ctx, p.BillID)
	if err != nil {
		return nil, err
	}
	return &Receipt{
		Payment:     p,
		Description: b.Description,
		BillAmount:  b.Amount,
		Change:      roundCents(p.Amount - b.Amount),
	}, nil
}
