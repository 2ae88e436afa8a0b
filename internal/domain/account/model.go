package account

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive      = "active"
	StatusDeactivated = "deactivated"
)

// ResetTokenTTL bounds how long a password reset token stays usable.
const ResetTokenTTL = time.Hour

// User maps to the users table.
type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	PasswordHash     string    `json:"-"`
	Email            string    `json:"email"`
	Phone            *string   `json:"phone,omitempty"`
	Address          *string   `json:"address,omitempty"`
	EmergencyContact *string   `json:"emergency_contact,omitempty"`
	Role             string    `json:"role"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *User) Deactivated() bool { return u.Status == StatusDeactivated }

// Profile maps to patient_profiles.
type Profile struct {
	UserID            uuid.UUID  `json:"user_id"`
	FirstName         *string    `json:"first_name,omitempty"`
	LastName          *string    `json:"last_name,omitempty"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	BloodType         *string    `json:"blood_type,omitempty"`
	Allergies         *string    `json:"allergies,omitempty"`
	MedicalConditions *string    `json:"medical_conditions,omitempty"`
}

// ProfileView is a user together with their patient profile, which may be
// absent for accounts created before profiles existed.
type ProfileView struct {
	User    *User    `json:"user"`
	Profile *Profile `json:"profile,omitempty"`
}

type PasswordReset struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

var bloodTypes = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"O+": true, "O-": true, "AB+": true, "AB-": true,
}

// ValidBloodType reports whether v is one of the eight ABO/Rh groups.
func ValidBloodType(v string) bool { return bloodTypes[v] }

// Fields stored on users versus patient_profiles.
var (
	contactFields = map[string]bool{"phone": true, "address": true, "emergency_contact": true}
	profileFields = map[string]bool{
		"first_name": true, "last_name": true, "date_of_birth": true,
		"blood_type": true, "allergies": true, "medical_conditions": true,
	}
)

func IsContactField(f string) bool { return contactFields[f] }
func IsProfileField(f string) bool { return profileFields[f] }
