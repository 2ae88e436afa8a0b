package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbot/clinic/internal/platform/db"
)

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

const userCols = `id, username, password_hash, email, phone, address, emergency_contact,
	role, status, created_at, updated_at`

// Column names are never taken from input; callers pass a key of this map.
var contactColumns = map[string]string{
	"phone":             "phone",
	"address":           "address",
	"emergency_contact": "emergency_contact",
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Phone, &u.Address,
		&u.EmergencyContact, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if db.NotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash, email, phone, address, emergency_contact, role, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.PasswordHash, u.Email, u.Phone, u.Address, u.EmergencyContact, u.Role, u.Status,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if db.UniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER($1) ORDER BY created_at LIMIT 1`, email))
}

func (r *userRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

func (r *userRepoPG) UpdateContact(ctx context.Context, id uuid.UUID, field, value string) error {
	col, ok := contactColumns[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return r.exec(ctx, `UPDATE users SET `+col+` = $2, updated_at = NOW() WHERE id = $1`, id, value)
}

func (r *userRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.exec(ctx, `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
}

func (r *userRepoPG) exec(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// =========== Profile Repository ===========

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewProfileRepoPG(pool *pgxpool.Pool) ProfileRepository { return &profileRepoPG{pool: pool} }

func (r *profileRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

var profileColumns = map[string]string{
	"first_name":         "first_name",
	"last_name":          "last_name",
	"date_of_birth":      "date_of_birth",
	"blood_type":         "blood_type",
	"allergies":          "allergies",
	"medical_conditions": "medical_conditions",
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profiles (id, user_id, first_name, last_name, date_of_birth, blood_type, allergies, medical_conditions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		uuid.New(), p.UserID, p.FirstName, p.LastName, p.DateOfBirth, p.BloodType, p.Allergies, p.MedicalConditions,
	)
	return err
}

func (r *profileRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT user_id, first_name, last_name, date_of_birth, blood_type, allergies, medical_conditions
		FROM patient_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.BloodType, &p.Allergies, &p.MedicalConditions)
	if db.NotFound(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepoPG) SetField(ctx context.Context, userID uuid.UUID, field string, value interface{}) error {
	col, ok := profileColumns[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profiles (id, user_id, `+col+`)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET `+col+` = EXCLUDED.`+col+`, updated_at = NOW()`,
		uuid.New(), userID, value,
	)
	return err
}

// =========== Password Reset Repository ===========

type resetRepoPG struct{ pool *pgxpool.Pool }

func NewResetRepoPG(pool *pgxpool.Pool) ResetRepository { return &resetRepoPG{pool: pool} }

func (r *resetRepoPG) conn(ctx context.Context) db.Querier { return db.Resolve(ctx, r.pool) }

func (r *resetRepoPG) Create(ctx context.Context, pr *PasswordReset) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		pr.Token, pr.UserID, pr.ExpiresAt)
	return err
}

func (r *resetRepoPG) Get(ctx context.Context, token string) (*PasswordReset, error) {
	var pr PasswordReset
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT token, user_id, expires_at, used_at FROM password_resets WHERE token = $1 FOR UPDATE`, token,
	).Scan(&pr.Token, &pr.UserID, &pr.ExpiresAt, &pr.UsedAt)
	if db.NotFound(err) {
		return nil, ErrInvalidResetToken
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *resetRepoPG) MarkUsed(ctx context.Context, token string, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE password_resets SET used_at = $2 WHERE token = $1 AND used_at IS NULL`, token, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidResetToken
	}
	return nil
}
