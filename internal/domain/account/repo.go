package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	// UpdateContact sets one of phone, address or emergency_contact.
	UpdateContact(ctx context.Context, id uuid.UUID, field, value string) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
}

type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// SetField creates the profile row when missing, then sets field.
	SetField(ctx context.Context, userID uuid.UUID, field string, value interface{}) error
}

type ResetRepository interface {
	Create(ctx context.Context, r *PasswordReset) error
	Get(ctx context.Context, token string) (*PasswordReset, error)
	MarkUsed(ctx context.Context, token string, at time.Time) error
}
