package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicbot/clinic/internal/config"
	"github.com/clinicbot/clinic/internal/platform/db"
	"github.com/clinicbot/clinic/internal/platform/nlu"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		logger := newLogger(&config.Config{Env: "production", LogLevel: tt.level}, &bytes.Buffer{})
		if got := logger.GetLevel(); got != tt.want {
			t.Errorf("LOG_LEVEL=%q: level = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{Env: "production", LogLevel: "info"}, &buf)
	logger.Info().Msg("hello")

	line := buf.String()
	if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"service":"clinic-server"`) {
		t.Errorf("expected JSON log line, got %q", line)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "clinic-server dev\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := map[string]bool{"serve": false, "migrate": false, "version": false}
	for _, c := range rootCmd().Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %s command", name)
		}
	}
}

func TestPrintStatuses(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printStatuses(&out, []db.MigrationStatus{
		{Version: 1, Name: "001_schema.sql", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "002_seed.sql"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[2], "applied") || !strings.Contains(lines[2], "2024-05-01 09:00:00") {
		t.Errorf("unexpected applied row %q", lines[2])
	}
	if !strings.Contains(lines[3], "pending") {
		t.Errorf("unexpected pending row %q", lines[3])
	}
}

func TestNewNLUClient_DisabledIsNoop(t *testing.T) {
	client, err := newNLUClient(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := client.(nlu.Noop); !ok {
		t.Errorf("expected Noop client, got %T", client)
	}
}

func TestNewNLUClient_DevelopmentUsesStaticReplies(t *testing.T) {
	client, err := newNLUClient(context.Background(), &config.Config{Env: "development"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	static, ok := client.(*nlu.Static)
	if !ok {
		t.Fatalf("expected Static client, got %T", client)
	}
	reply, err := static.DetectIntent(context.Background(), "session", "Hello", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply == "" {
		t.Error("expected a canned greeting in development")
	}
}
