package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clinicbot/clinic/internal/domain/scheduling"
)

// fieldUpdate is one "update my X to Y" phrasing. The first capture group
// is the new value.
type fieldUpdate struct {
	field   string
	pattern *regexp.Regexp
}

var fieldUpdates = []fieldUpdate{
	{"phone", regexp.MustCompile(`(?i)update my (?:phone|telephone|mobile)(?: number)? to (\d+)`)},
	{"address", regexp.MustCompile(`(?i)update my address to (.+)`)},
	{"blood_type", regexp.MustCompile(`(?i)(?:my blood type is|update my blood type to) (AB[+-]|A[+-]|B[+-]|O[+-])`)},
	{"allergies", regexp.MustCompile(`(?i)update my allergies to (.+)`)},
	{"emergency_contact", regexp.MustCompile(`(?i)update my emergency contact to (.+)`)},
}

var deactivationPhrases = []string{
	"deactivate my account",
	"delete my account",
	"close my account",
	"remove my account",
	"deactivate account",
	"delete account",
}

var (
	isoDatePattern = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	clockPattern   = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
)

// bookingRequest is what could be pulled out of a free-text booking.
type bookingRequest struct {
	Doctor string
	Date   string
	Time   string
	Type   string
}

// missing lists the absent fields in the order they are asked for.
func (b bookingRequest) missing() []string {
	var out []string
	if b.Date == "" {
		out = append(out, "preferred date")
	}
	if b.Time == "" {
		out = append(out, "preferred time")
	}
	if b.Doctor == "" {
		out = append(out, "preferred doctor")
	}
	return out
}

// parseBooking reads a lower-cased message.
func parseBooking(lower string) bookingRequest {
	return bookingRequest{
		Doctor: doctorName(lower),
		Date:   bookingDate(lower),
		Time:   bookingTime(lower),
		Type:   appointmentType(lower),
	}
}

func doctorName(lower string) string {
	for _, marker := range []string{"dr.", "dr "} {
		if _, rest, ok := strings.Cut(lower, marker); ok {
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				continue
			}
			name := strings.TrimFunc(fields[0], func(r rune) bool {
				return !(r >= 'a' && r <= 'z') && r != '-' && r != '\''
			})
			if name != "" {
				return scheduling.NormalizeDoctorName(name)
			}
		}
	}
	return ""
}

func bookingDate(lower string) string {
	switch {
	case strings.Contains(lower, "tomorrow"):
		return "tomorrow"
	case strings.Contains(lower, "today"):
		return "today"
	}
	if m := isoDatePattern.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	return ""
}

// bookingTime converts "2 pm" or "9:30am" to "14:00" or "09:30".
func bookingTime(lower string) string {
	m := clockPattern.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return ""
	}
	if hour == 12 {
		hour = 0
	}
	if m[3] == "pm" {
		hour += 12
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func appointmentType(lower string) string {
	switch {
	case strings.Contains(lower, "checkup"):
		return scheduling.DefaultAppointmentType
	case strings.Contains(lower, "specialist"):
		return "Specialist Consultation"
	case strings.Contains(lower, "follow") && strings.Contains(lower, "up"):
		return "Follow-up"
	}
	return scheduling.DefaultAppointmentType
}

// specialityOf maps a doctors question to the speciality it narrows to.
func specialityOf(lower string) string {
	if strings.Contains(lower, "general") {
		return "General Practice"
	}
	for _, s := range []string{"cardiology", "pediatrics", "dermatology"} {
		if strings.Contains(lower, s) {
			return strings.ToUpper(s[:1]) + s[1:]
		}
	}
	return ""
}

// medicationAfter returns the word following "for" or "of", if any.
func medicationAfter(words []string) string {
	for i, w := range words {
		if (w == "for" || w == "of") && i+1 < len(words) {
			return strings.Trim(words[i+1], "?.!,")
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasWord(words []string, want string) bool {
	for _, w := range words {
		if strings.Trim(w, "?.!,") == want {
			return true
		}
	}
	return false
}
