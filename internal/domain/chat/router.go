// Package chat turns free-text messages into account, scheduling, billing
// and prescription operations.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicbot/clinic/internal/domain/account"
	"github.com/clinicbot/clinic/internal/domain/billing"
	"github.com/clinicbot/clinic/internal/domain/clinic"
	"github.com/clinicbot/clinic/internal/domain/medication"
	"github.com/clinicbot/clinic/internal/domain/scheduling"
	"github.com/clinicbot/clinic/internal/platform/nlu"
)

const (
	ActionLogout = "logout"

	replyNotUnderstood = "I'm not sure how to help with that. Could you please rephrase?"
	replyNLUFailed     = "I'm having trouble understanding. Could you please try again?"
)

// Reply is what the router says back. Action asks the client to do
// something beyond showing Message.
type Reply struct {
	Message string `json:"response"`
	Action  string `json:"action,omitempty"`
}

func say(msg string) Reply { return Reply{Message: msg} }

func sayf(format string, args ...interface{}) Reply {
	return Reply{Message: fmt.Sprintf(format, args...)}
}

type Accounts interface {
	UpdateField(ctx context.Context, userID uuid.UUID, field, value string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*account.ProfileView, error)
	Deactivate(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Scheduler interface {
	ListDoctors(ctx context.Context, speciality string) ([]*scheduling.Doctor, error)
	ScheduleAppointment(ctx context.Context, userID uuid.UUID, doctorName, date, apptType, clock string) (*scheduling.Appointment, error)
	GetAvailableSlots(ctx context.Context, date string) ([]scheduling.Slot, error)
	ListUpcoming(ctx context.Context, userID uuid.UUID) ([]*scheduling.Appointment, error)
}

type Bills interface {
	ListOutstanding(ctx context.Context, userID uuid.UUID) (*billing.Outstanding, error)
}

type Prescriptions interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]*medication.Prescription, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]*medication.Prescription, error)
	FindActiveByName(ctx context.Context, userID uuid.UUID, name string) ([]*medication.Prescription, error)
}

type ClinicDirectory interface {
	Info(ctx context.Context) (*clinic.Info, error)
}

// Deps wires the router to the services it drives.
type Deps struct {
	Accounts      Accounts
	Scheduler     Scheduler
	Bills         Bills
	Prescriptions Prescriptions
	Clinic        ClinicDirectory
	NLU           nlu.Client
	Language      string
	Logger        zerolog.Logger
}

// input is a message prepared for matching. text keeps the user's casing;
// lower and words are for keyword rules.
type input struct {
	text  string
	lower string
	words []string
}

func newInput(message string) input {
	text := strings.TrimSpace(message)
	if len(text) >= 4 && strings.EqualFold(text[:4], "you:") {
		text = strings.TrimSpace(text[4:])
	}
	lower := strings.ToLower(text)
	return input{text: text, lower: lower, words: strings.Fields(lower)}
}

// rule is one step of the cascade. match returns the values handle needs.
type rule struct {
	name   string
	match  func(in input) ([]string, bool)
	handle func(ctx context.Context, userID uuid.UUID, in input, args []string) Reply
}

// Router dispatches a message to the first rule that matches it.
type Router struct {
	deps  Deps
	rules []rule
}

func NewRouter(deps Deps) *Router {
	if deps.NLU == nil {
		deps.NLU = nlu.Noop{}
	}
	if deps.Language == "" {
		deps.Language = "en"
	}
	r := &Router{deps: deps}
	// Order is significant: the first match wins.
	r.rules = []rule{
		{"field-update", matchFieldUpdate, r.updateField},
		{"profile-info", matchExact("show my profile information"), r.showProfile},
		{"deactivate", matchContains(deactivationPhrases...), r.deactivate},
		{"doctors", matchContains("doctor"), r.doctors},
		{"clinic", matchContains("clinic"), r.clinicInfo},
		{"show", matchShow, r.show},
		{"profile-help", matchProfileHelp, r.profileHelp},
		{"schedule", matchContains("schedule", "book", "appointment", "checkup", "want"), r.schedule},
		{"prescriptions", matchContains("prescription", "medicine", "medication", "refill"), r.prescriptions},
		{"nlu", func(input) ([]string, bool) { return nil, true }, r.fallback},
	}
	return r
}

// Handle answers message for userID. Failures become apologetic replies;
// Handle itself never fails.
func (r *Router) Handle(ctx context.Context, userID uuid.UUID, message string) Reply {
	if userID == uuid.Nil {
		return say("Please log in to continue.")
	}
	in := newInput(message)
	if in.text == "" {
		return say("Please type a message so I can help.")
	}
	for _, rl := range r.rules {
		args, ok := rl.match(in)
		if !ok {
			continue
		}
		logger := r.deps.Logger.With().
			Str("user_id", userID.String()).
			Str("rule", rl.name).
			Logger()
		logger.Debug().Msg("chat rule matched")
		return rl.handle(logger.WithContext(ctx), userID, in, args)
	}
	return say(replyNotUnderstood)
}

func logFailure(ctx context.Context, err error, msg string) {
	zerolog.Ctx(ctx).Error().Err(err).Msg(msg)
}

// -- Matchers --

func matchExact(phrase string) func(input) ([]string, bool) {
	return func(in input) ([]string, bool) { return nil, in.lower == phrase }
}

func matchContains(subs ...string) func(input) ([]string, bool) {
	return func(in input) ([]string, bool) { return nil, containsAny(in.lower, subs...) }
}

func matchFieldUpdate(in input) ([]string, bool) {
	for _, fu := range fieldUpdates {
		if m := fu.pattern.FindStringSubmatch(in.text); m != nil {
			value := strings.TrimSpace(m[1])
			if fu.field == "blood_type" {
				value = strings.ToUpper(value)
			}
			return []string{fu.field, value}, true
		}
	}
	return nil, false
}

var showEntities = []struct {
	entity   string
	keywords []string
}{
	{"appointment", []string{"appointment"}},
	{"prescription", []string{"prescription"}},
	{"bill", []string{"bill"}},
	{"profile", []string{"profile"}},
}

func matchShow(in input) ([]string, bool) {
	if !strings.Contains(in.lower, "show") {
		return nil, false
	}
	for _, e := range showEntities {
		if containsAny(in.lower, e.keywords...) {
			return []string{e.entity}, true
		}
	}
	return nil, false
}

func matchProfileHelp(in input) ([]string, bool) {
	return nil, strings.Contains(in.lower, "how") &&
		strings.Contains(in.lower, "update") &&
		strings.Contains(in.lower, "profile")
}

// -- Handlers --

func (r *Router) updateField(ctx context.Context, userID uuid.UUID, _ input, args []string) Reply {
	field, value := args[0], args[1]
	label := fieldLabel(field)
	if err := r.deps.Accounts.UpdateField(ctx, userID, field, value); err != nil {
		if errors.Is(err, account.ErrInvalidInput) || errors.Is(err, account.ErrInvalidBloodType) {
			return sayf("Sorry, I couldn't update your %s: %v", label, err)
		}
		logFailure(ctx, err, "profile update failed")
		return sayf("Sorry, I couldn't update your %s at this moment.", label)
	}
	return sayf("Your %s has been updated to: %s", label, value)
}

func (r *Router) showProfile(ctx context.Context, userID uuid.UUID, _ input, _ []string) Reply {
	view, err := r.deps.Accounts.GetProfile(ctx, userID)
	if errors.Is(err, account.ErrUserNotFound) {
		return say("Sorry, I couldn't find your profile information.")
	}
	if err != nil {
		logFailure(ctx, err, "load profile failed")
		return say("Sorry, I couldn't retrieve your profile information at this moment.")
	}
	return say(formatProfile(view))
}

func (r *Router) deactivate(ctx context.Context, userID uuid.UUID, _ input, _ []string) Reply {
	already, err := r.deps.Accounts.Deactivate(ctx, userID)
	if errors.Is(err, account.ErrUserNotFound) {
		return say("Unable to find your account.")
	}
	if err != nil {
		logFailure(ctx, err, "deactivation failed")
		return say("Sorry, I couldn't deactivate your account at this moment.")
	}
	if already {
		return say("Your account is already deactivated.")
	}
	return Reply{
		Message: "Your account has been deactivated. You will be logged out automatically. " +
			"If you wish to reactivate your account in the future, please contact our support team.",
		Action: ActionLogout,
	}
}

func (r *Router) doctors(ctx context.Context, _ uuid.UUID, in input, _ []string) Reply {
	speciality := specialityOf(in.lower)
	doctors, err := r.deps.Scheduler.ListDoctors(ctx, speciality)
	if err != nil {
		logFailure(ctx, err, "list doctors failed")
		return say(replyNLUFailed)
	}
	return say(formatDoctors(doctors, speciality))
}

func (r *Router) clinicInfo(ctx context.Context, _ uuid.UUID, in input, _ []string) Reply {
	info, err := r.deps.Clinic.Info(ctx)
	if err != nil {
		if !errors.Is(err, clinic.ErrInfoMissing) {
			logFailure(ctx, err, "load clinic info failed")
		}
		return say("Sorry, clinic information is not available at the moment.")
	}
	topic := clinicAll
	switch {
	case containsAny(in.lower, "hour", "time", "open"):
		topic = clinicHours
	case containsAny(in.lower, "location", "address", "where"):
		topic = clinicLocation
	case containsAny(in.lower, "contact", "phone", "email"):
		topic = clinicContact
	}
	return say(formatClinic(info, topic))
}

func (r *Router) show(ctx context.Context, userID uuid.UUID, in input, args []string) Reply {
	switch args[0] {
	case "appointment":
		items, err := r.deps.Scheduler.ListUpcoming(ctx, userID)
		if err != nil {
			logFailure(ctx, err, "list appointments failed")
			return say("Sorry, I couldn't retrieve your appointments at this moment.")
		}
		return say(formatAppointments(items))
	case "prescription":
		return r.listPrescriptions(ctx, userID, true)
	case "bill":
		o, err := r.deps.Bills.ListOutstanding(ctx, userID)
		if err != nil {
			logFailure(ctx, err, "list bills failed")
			return say("Sorry, I couldn't retrieve your billing information at this moment.")
		}
		return say(formatBills(o))
	}
	return r.showProfile(ctx, userID, in, nil)
}

func (r *Router) profileHelp(context.Context, uuid.UUID, input, []string) Reply {
	return say(profileHelp)
}

func (r *Router) schedule(ctx context.Context, userID uuid.UUID, in input, _ []string) Reply {
	req := parseBooking(in.lower)
	if missing := req.missing(); len(missing) > 0 {
		return sayf("Please provide the following information: %s", strings.Join(missing, ", "))
	}

	appt, err := r.deps.Scheduler.ScheduleAppointment(ctx, userID, req.Doctor, req.Date, req.Type, req.Time)
	if err == nil {
		return say(formatBooked(appt))
	}

	reason := bookingFailure(err)
	if reason == "" {
		logFailure(ctx, err, "schedule appointment failed")
		return say("Sorry, there was an error processing your request. Please try again.")
	}
	slots, err := r.deps.Scheduler.GetAvailableSlots(ctx, req.Date)
	if err != nil {
		logFailure(ctx, err, "list slots failed")
		return sayf("Sorry, %s", reason)
	}
	if len(slots) == 0 {
		return sayf("Sorry, %s There are no available slots for %s. Would you like to try another day?", reason, req.Date)
	}
	return say(formatSlots(fmt.Sprintf("Sorry, %s Here are the available slots for %s:\n", reason, req.Date), slots))
}

// bookingFailure explains an expected booking rejection. Unexpected errors
// yield "".
func bookingFailure(err error) string {
	switch {
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		return "I couldn't find that doctor."
	case errors.Is(err, scheduling.ErrDoctorUnavailable):
		return "the doctor doesn't work on that day."
	case errors.Is(err, scheduling.ErrOutsideWorkingHours):
		return "that time is outside the doctor's working hours."
	case errors.Is(err, scheduling.ErrSlotTaken):
		return "that slot is not available."
	case errors.Is(err, scheduling.ErrPastDate):
		return "that date is in the past."
	case errors.Is(err, scheduling.ErrInvalidDate), errors.Is(err, scheduling.ErrInvalidTime):
		return "I couldn't understand that date or time."
	}
	return ""
}

func (r *Router) prescriptions(ctx context.Context, userID uuid.UUID, in input, _ []string) Reply {
	switch {
	case hasWord(in.words, "active"):
		return r.listPrescriptions(ctx, userID, true)
	case hasWord(in.words, "all"):
		return r.listPrescriptions(ctx, userID, false)
	}
	name := medicationAfter(in.words)
	if name == "" {
		return r.listPrescriptions(ctx, userID, true)
	}
	found, err := r.deps.Prescriptions.FindActiveByName(ctx, userID, name)
	if err != nil {
		logFailure(ctx, err, "find prescription failed")
		return say("Sorry, I couldn't process your prescription request at this moment.")
	}
	if len(found) == 0 {
		return sayf("I couldn't find an active prescription for %s. Please verify the medication name or contact your doctor.", name)
	}
	return say(formatPrescriptionDetail(found[0]))
}

func (r *Router) listPrescriptions(ctx context.Context, userID uuid.UUID, activeOnly bool) Reply {
	list := r.deps.Prescriptions.ListAll
	if activeOnly {
		list = r.deps.Prescriptions.ListActive
	}
	items, err := list(ctx, userID)
	if err != nil {
		logFailure(ctx, err, "list prescriptions failed")
		return say("Sorry, I couldn't retrieve your prescriptions at this moment.")
	}
	return say(formatPrescriptions(items, activeOnly))
}

func (r *Router) fallback(ctx context.Context, userID uuid.UUID, in input, _ []string) Reply {
	text, err := r.deps.NLU.DetectIntent(ctx, userID.String(), in.text, r.deps.Language)
	if err != nil {
		logFailure(ctx, err, "nlu request failed")
		return say(replyNLUFailed)
	}
	if strings.TrimSpace(text) == "" {
		return say(replyNotUnderstood)
	}
	return say(text)
}
