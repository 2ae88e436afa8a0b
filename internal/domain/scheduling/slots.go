package scheduling

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SlotMinutes is the length of one bookable slot.
const SlotMinutes = 30

// Clinic opening hours, used to validate reschedule requests.
const (
	ClinicOpens  = 8 * 60
	ClinicCloses = 18 * 60
)

const dateLayout = "2006-01-02"

// WalkSlots returns the slot start times in iv, stepping SlotMinutes from
// the start and stopping strictly before the end.
func WalkSlots(iv Interval) []string {
	var out []string
	for t := iv.Start; t < iv.End; t += SlotMinutes {
		out = append(out, FormatClock(t))
	}
	return out
}

// NormalizeDate resolves "today", "tomorrow" or a YYYY-MM-DD date relative
// to now. The result is midnight UTC of the calendar day in now's zone.
func NormalizeDate(input string, now time.Time) (time.Time, error) {
	switch s := strings.ToLower(strings.TrimSpace(input)); s {
	case "today":
		return civilDate(now), nil
	case "tomorrow":
		return civilDate(now).AddDate(0, 0, 1), nil
	default:
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
		}
		return d, nil
	}
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(d time.Time) string { return d.Format(dateLayout) }

// NormalizeDoctorName strips a "Dr" prefix and title-cases the rest, so
// "dr. SMITH" and "smith" both resolve to "Smith".
func NormalizeDoctorName(name string) string {
	n := strings.TrimSpace(name)
	lower := strings.ToLower(n)
	for _, prefix := range []string{"dr.", "dr "} {
		if strings.HasPrefix(lower, prefix) {
			n = strings.TrimSpace(n[len(prefix):])
			break
		}
	}
	// Casers keep state between calls and are not shared.
	return cases.Title(language.English).String(n)
}
