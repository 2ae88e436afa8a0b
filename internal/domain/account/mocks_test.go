package account

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	_ UserRepository    = (*mockUserRepo)(nil)
	_ ProfileRepository = (*mockProfileRepo)(nil)
	_ ResetRepository   = (*mockResetRepo)(nil)
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) UpdateContact(_ context.Context, id uuid.UUID, field, value string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	v := value
	switch field {
	case "phone":
		u.Phone = &v
	case "address":
		u.Address = &v
	case "emergency_contact":
		u.EmergencyContact = &v
	default:
		return ErrUnknownField
	}
	return nil
}

func (m *mockUserRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Status = status
	return nil
}

type mockProfileRepo struct {
	profiles map[uuid.UUID]*Profile
	fail     error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[uuid.UUID]*Profile)}
}

func (m *mockProfileRepo) Create(_ context.Context, p *Profile) error {
	if m.fail != nil {
		return m.fail
	}
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (m *mockProfileRepo) SetField(_ context.Context, userID uuid.UUID, field string, value interface{}) error {
	p, ok := m.profiles[userID]
	if !ok {
		p = &Profile{UserID: userID}
		m.profiles[userID] = p
	}
	if field == "date_of_birth" {
		d := value.(time.Time)
		p.DateOfBirth = &d
		return nil
	}
	s := value.(string)
	switch field {
	case "first_name":
		p.FirstName = &s
	case "last_name":
		p.LastName = &s
	case "blood_type":
		p.BloodType = &s
	case "allergies":
		p.Allergies = &s
	case "medical_conditions":
		p.MedicalConditions = &s
	default:
		return ErrUnknownField
	}
	return nil
}

type mockResetRepo struct {
	resets map[string]*PasswordReset
}

func newMockResetRepo() *mockResetRepo {
	return &mockResetRepo{resets: make(map[string]*PasswordReset)}
}

func (m *mockResetRepo) Create(_ context.Context, r *PasswordReset) error {
	m.resets[r.Token] = r
	return nil
}

func (m *mockResetRepo) Get(_ context.Context, token string) (*PasswordReset, error) {
	r, ok := m.resets[token]
	if !ok {
		return nil, ErrInvalidResetToken
	}
	cp := *r
	return &cp, nil
}

func (m *mockResetRepo) MarkUsed(_ context.Context, token string, at time.Time) error {
	r, ok := m.resets[token]
	if !ok || r.UsedAt != nil {
		return ErrInvalidResetToken
	}
	r.UsedAt = &at
	return nil
}

// mockTx restores the user map when fn fails, like a rolled back
// transaction would.
type mockTx struct {
	users *mockUserRepo
}

func (m *mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[uuid.UUID]*User, len(m.users.users))
	for k, v := range m.users.users {
		cp := *v
		snapshot[k] = &cp
	}
	if err := fn(ctx); err != nil {
		m.users.users = snapshot
		return err
	}
	return nil
}

type recordedNotice struct {
	userID     uuid.UUID
	templateID string
	data       map[string]string
}

type mockNotifier struct {
	sent []recordedNotice
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, templateID string, data map[string]string, _ time.Time, _ string) error {
	m.sent = append(m.sent, recordedNotice{userID: userID, templateID: templateID, data: data})
	return nil
}
