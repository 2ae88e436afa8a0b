package billing

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "PENDING"
	StatusCancelled = "CANCELLED"
	StatusPaid      = "PAID"
)

// DueAfter is how long after the appointment date an appointment bill is due.
const DueAfter = 30 * 24 * time.Hour

type Bill struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Amount        float64    `json:"amount"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	DueDate       time.Time  `json:"due_date"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Payment struct {
	ID        uuid.UUID `json:"id"`
	BillID    uuid.UUID `json:"bill_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"payment_method"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentPlan splits a bill into Installments payments. The first
// Installments-1 are InstallmentAmount; FinalInstallment carries the
// rounding remainder so the plan sums to the bill amount.
type PaymentPlan struct {
	ID                uuid.UUID `json:"id"`
	BillID            uuid.UUID `json:"bill_id"`
	UserID            uuid.UUID `json:"user_id"`
	Installments      int       `json:"installments"`
	InstallmentAmount float64   `json:"installment_amount"`
	FinalInstallment  float64   `json:"final_installment"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

type Receipt struct {
	Payment     *Payment `json:"payment"`
	Description string   `json:"description"`
	BillAmount  float64  `json:"bill_amount"`
	Change      float64  `json:"change"`
}

type Outstanding struct {
	Bills []*Bill `json:"bills"`
	Total float64 `json:"total"`
}

// appointmentPrices maps appointment types to their fee. Types not listed
// cost defaultAppointmentPrice.
var appointmentPrices = map[string]float64{
	"General Checkup": 150.00,
}

const defaultAppointmentPrice = 200.00

// AppointmentPrice returns the fee billed for an appointment type.
func AppointmentPrice(appointmentType string) float64 {
	if p, ok := appointmentPrices[appointmentType]; ok {
		return p
	}
	return defaultAppointmentPrice
}

// NewAppointmentBill builds the pending bill that accompanies a new
// appointment on date.
func NewAppointmentBill(userID, appointmentID uuid.UUID, appointmentType string, date time.Time) *Bill {
	apptID := appointmentID
	return &Bill{
		UserID:        userID,
		AppointmentID: &apptID,
		Amount:        AppointmentPrice(appointmentType),
		Description:   appointmentType + " Appointment",
		Status:        StatusPending,
		DueDate:       date.Add(DueAfter),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
