package nlu

import (
	"context"
	"fmt"
	"strings"
	"time"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/api/option"
)

type DialogflowConfig struct {
	ProjectID       string
	CredentialsFile string
	// Timeout bounds a single DetectIntent round trip; zero means 5s.
	Timeout time.Duration
}

// Dialogflow is a Client backed by a Dialogflow ES agent.
type Dialogflow struct {
	sessions *dialogflow.SessionsClient
	project  string
	timeout  time.Duration
}

func NewDialogflow(ctx context.Context, cfg DialogflowConfig) (*Dialogflow, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("dialogflow project id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	sessions, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create dialogflow sessions client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dialogflow{sessions: sessions, project: cfg.ProjectID, timeout: timeout}, nil
}

func (d *Dialogflow) DetectIntent(ctx context.Context, sessionKey, text, languageCode string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.sessions.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
		Session: SessionPath(d.project, sessionKey),
		QueryInput: &dialogflowpb.QueryInput{
			Input: &dialogflowpb.QueryInput_Text{
				Text: &dialogflowpb.TextInput{Text: text, LanguageCode: languageCode},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("dialogflow detect intent: %w", err)
	}
	return strings.TrimSpace(resp.GetQueryResult().GetFulfillmentText()), nil
}

func (d *Dialogflow) Close() error {
	return d.sessions.Close()
}

// SessionPath builds the agent session resource name. Empty keys share a
// "default" session.
func SessionPath(project, sessionKey string) string {
	if sessionKey == "" {
		sessionKey = "default"
	}
	return fmt.Sprintf("projects/%s/agent/sessions/%s", project, sessionKey)
}
