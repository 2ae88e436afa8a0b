// Package notification renders patient-facing messages from named templates
// and hands them to a Sink. Delivery is insert-and-forget: the sink usually
// writes a reminder row that the patient sees on their next visit.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	TemplateAppointmentReminder = "appointment-reminder"
	TemplateRefillReminder      = "refill-reminder"
	TemplateRecordUpdate        = "record-update"
	TemplatePasswordReset       = "password-reset"
)

// Template defines a reusable message. Kind becomes the reminder type of the
// delivered message.
type Template struct {
	ID   string
	Kind string
	Body string
}

// TemplateEngine manages templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]Template)}
	for _, t := range []Template{
		{
			ID:   TemplateAppointmentReminder,
			Kind: "appointment",
			Body: "Reminder: your {{type}} with Dr. {{doctor}} is on {{date}} at {{time}}.",
		},
		{
			ID:   TemplateRefillReminder,
			Kind: "refill",
			Body: "Your prescription for {{medication}} ends on {{end_date}}. Request a refill if you still need it.",
		},
		{
			ID:   TemplateRecordUpdate,
			Kind: "record_update",
			Body: "Your health record has been updated: {{record_type}} on {{date}}.",
		},
		{
			ID:   TemplatePasswordReset,
			Kind: "password_reset",
			Body: "Use this code to reset your password: {{token}}. It expires at {{expires_at}}.",
		},
	} {
		e.templates[t.ID] = t
	}
	return e
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

// IDs lists registered template ids in sorted order.
func (e *TemplateEngine) IDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.templates))
	for id := range e.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Render performs {{key}} replacement. Keys present in the template but
// absent from data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (Template, string, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return Template{}, "", fmt.Errorf("template %q not found", templateID)
	}

	body := t.Body
	for k, v := range data {
		body = strings.ReplaceAll(body, "{{"+k+"}}", v)
	}
	return t, body, nil
}

// Message is one rendered notification ready for delivery.
type Message struct {
	UserID uuid.UUID
	Kind   string
	Text   string
	Date   time.Time
	// Time is the optional "HH:MM" the message is due.
	Time string
}

// Sink persists or forwards a rendered message.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg Message) error

func (f SinkFunc) Deliver(ctx context.Context, msg Message) error { return f(ctx, msg) }

// LogSink writes messages to the log instead of storing them. It stands in
// for channels that have no transport yet.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Deliver(_ context.Context, msg Message) error {
	s.Logger.Info().
		Str("user_id", msg.UserID.String()).
		Str("kind", msg.Kind).
		Time("date", msg.Date).
		Msg(msg.Text)
	return nil
}

var ErrNoRecipient = errors.New("notification has no recipient")

// Notifier renders templates and delivers them through a sink.
type Notifier struct {
	templates *TemplateEngine
	sink      Sink
}

func NewNotifier(templates *TemplateEngine, sink Sink) *Notifier {
	return &Notifier{templates: templates, sink: sink}
}

// Notify renders templateID with data and delivers it for userID, due on
// date (and at clock, when non-empty).
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, templateID string, data map[string]string, date time.Time, clock string) error {
	if userID == uuid.Nil {
		return ErrNoRecipient
	}
	tpl, text, err := n.templates.Render(templateID, data)
	if err != nil {
		return err
	}
	msg := Message{UserID: userID, Kind: tpl.Kind, Text: text, Date: date, Time: clock}
	if err := n.sink.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver %s: %w", templateID, err)
	}
	return nil
}
