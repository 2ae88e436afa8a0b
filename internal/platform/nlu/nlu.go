// Package nlu is the natural-language fallback used by the chat router when
// no keyword rule matches.
package nlu

import (
	"context"
	"strings"
	"sync"
)

// Client resolves free text to a fulfillment reply. An empty string with a
// nil error means the agent had nothing useful to say.
type Client interface {
	DetectIntent(ctx context.Context, sessionKey, text, languageCode string) (string, error)
	Close() error
}

// Noop is used when no agent is configured; it never answers.
type Noop struct{}

func (Noop) DetectIntent(context.Context, string, string, string) (string, error) { return "", nil }
func (Noop) Close() error { return nil }

// Static answers from a fixed phrase table. It backs tests and local
// development without cloud credentials (see DevReplies).
type Static struct {
	mu      sync.Mutex
	replies map[string]string
	calls   []string
	err     error
}

func NewStatic(replies map[string]string) *Static {
	return &Static{replies: replies}
}

// FailWith makes every subsequent call return err.
func (s *Static) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Static) DetectIntent(_ context.Context, _ string, text, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	if s.err != nil {
		return "", s.err
	}
	return s.replies[strings.ToLower(strings.TrimSpace(text))], nil
}

// Calls returns the texts received so far.
func (s *Static) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Static) Close() error { return nil }

// DevReplies is the small talk served by Static when the server runs in
// development without an agent configured.
func DevReplies() map[string]string {
	return map[string]string{
		"hello":     "Hello! How can I help you today?",
		"hi":        "Hi there! How can I help you today?",
		"thanks":    "You're welcome!",
		"thank you": "You're welcome!",
		"bye":       "Goodbye! Take care.",
	}
}
