package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicbot/clinic/internal/platform/auth"
	"github.com/clinicbot/clinic/internal/platform/db"
	"github.com/clinicbot/clinic/internal/platform/notification"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("patient profile not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrUnknownField       = errors.New("unknown profile field")
	ErrInvalidBloodType   = errors.New("blood type must be one of A+, A-, B+, B-, O+, O-, AB+, AB-")
)

// Notifier delivers rendered templates; *notification.Notifier satisfies it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, templateID string, data map[string]string, date time.Time, clock string) error
}

type Service struct {
	users       UserRepository
	profiles    ProfileRepository
	resets      ResetRepository
	tx          db.Transactor
	tokens      *auth.TokenIssuer
	revocations *auth.TokenRevocationStore
	notifier    Notifier
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(
	users UserRepository,
	profiles ProfileRepository,
	resets ResetRepository,
	tx db.Transactor,
	tokens *auth.TokenIssuer,
	revocations *auth.TokenRevocationStore,
	notifier Notifier,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:       users,
		profiles:    profiles,
		resets:      resets,
		tx:          tx,
		tokens:      tokens,
		revocations: revocations,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func invalid(msg string) error { return fmt.Errorf("%w: %s", ErrInvalidInput, msg) }

// -- Registration and sessions --

// Register creates an active patient account and its profile together.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		return nil, invalid("username is required")
	}
	if in.Email == "" {
		return nil, invalid("email is required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, invalid(err.Error())
		}
		return nil, err
	}

	user := &User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		Role:         auth.RolePatient,
		Status:       StatusActive,
	}
	first := strings.TrimSpace(in.FirstName)
	if first == "" {
		first = in.Username
	}
	profile := &Profile{FirstName: &first}
	if last := strings.TrimSpace(in.LastName); last != "" {
		profile.LastName = &last
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
			return ErrUsernameTaken
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		return s.profiles.Create(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("account registered")
	return user, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, *User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if user.Deactivated() {
		return nil, nil, ErrAccountDeactivated
	}

	token, claims, err := s.tokens.Issue(user.ID.String(), []string{user.Role})
	if err != nil {
		return nil, nil, err
	}
	return &Session{Token: token, UserID: user.ID, ExpiresAt: claims.ExpiresAt.Time}, user, nil
}

// Logout revokes one session token until it would have expired anyway.
func (s *Service) Logout(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	s.revocations.Revoke(jti, expiresAt)
}

// ActiveUser reports whether userID names an account that may still hold a
// session. Unknown and deactivated accounts are not active.
func (s *Service) ActiveUser(ctx context.Context, userID string) (bool, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return false, nil
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !user.Deactivated(), nil
}

// endSessions invalidates every token the user currently holds.
func (s *Service) endSessions(userID uuid.UUID) {
	s.revocations.RevokeUser(userID.String(), s.tokens.TTL())
}

// -- Passwords --

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return invalid("current and new password are required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return invalid(err.Error())
		}
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.endSessions(userID)
	return nil
}

// RequestPasswordReset issues a one hour token for the account registered
// with email. Unknown addresses succeed without doing anything.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now()
	reset := &PasswordReset{
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    user.ID,
		ExpiresAt: now.Add(ResetTokenTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return s.notifier.Notify(ctx, user.ID, notification.TemplatePasswordReset, map[string]string{
		"token":      reset.Token,
		"expires_at": reset.ExpiresAt.UTC().Format(time.RFC3339),
	}, now, "")
}

// ResetPassword consumes a reset token and sets a new password. Existing
// sessions are ended.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidResetToken
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return invalid(err.Error())
		}
		return err
	}

	var userID uuid.UUID
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		reset, err := s.resets.Get(ctx, token)
		if err != nil {
			return err
		}
		now := s.now()
		if reset.UsedAt != nil || !now.Before(reset.ExpiresAt) {
			return ErrInvalidResetToken
		}
		if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
			return err
		}
		userID = reset.UserID
		return s.resets.MarkUsed(ctx, token, now)
	})
	if err != nil {
		return err
	}
	s.endSessions(userID)
	return nil
}

// -- Account lifecycle --

// Deactivate marks the account deactivated and ends its sessions. already
// is true when there was nothing to do.
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) (already bool, err error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.Deactivated() {
		return true, nil
	}
	if err := s.users.SetStatus(ctx, userID, StatusDeactivated); err != nil {
		return false, err
	}
	s.endSessions(userID)
	s.logger.Info().Str("user_id", userID.String()).Msg("account deactivated")
	return false, nil
}

// -- Profile --

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	return &ProfileView{User: user, Profile: profile}, nil
}

func (s *Service) UpdateContactField(ctx context.Context, userID uuid.UUID, field, value string) error {
	if !IsContactField(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(field + " must not be empty")
	}
	return s.users.UpdateContact(ctx, userID, field, value)
}

func (s *Service) UpdateProfileField(ctx context.Context, userID uuid.UUID, field, value string) error {
	if !IsProfileField(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return invalid(field + " must not be empty")
	}

	var stored interface{} = value
	switch field {
	case "blood_type":
		value = strings.ToUpper(value)
		if !ValidBloodType(value) {
			return ErrInvalidBloodType
		}
		stored = value
	case "date_of_birth":
		dob, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return invalid("date_of_birth must be YYYY-MM-DD")
		}
		if dob.After(s.now()) {
			return invalid("date_of_birth is in the future")
		}
		stored = dob
	}
	return s.profiles.SetField(ctx, userID, field, stored)
}

// UpdateField routes field to the users row or the patient profile.
func (s *Service) UpdateField(ctx context.Context, userID uuid.UUID, field, value string) error {
	if IsContactField(field) {
		return s.UpdateContactField(ctx, userID, field, value)
	}
	return s.UpdateProfileField(ctx, userID, field, value)
}
