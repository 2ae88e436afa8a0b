package clinic

import (
	"github.com/google/uuid"
)

// Info is the single clinic_info row.
type Info struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	OpeningHours   string  `json:"opening_hours"`
	EmergencyHours string  `json:"emergency_hours"`
	MapURL         *string `json:"map_url,omitempty"`
}

type Service struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           float64   `json:"price"`
}
