package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, zerolog.InfoLevel, "json")
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	log.Debug().Msg("hidden")
	log.Info().Str("room", "room-b-a").Msg("matched")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "matched" || entry["room"] != "room-b-a" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no timestamp")
	}
}

func TestSetupWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, zerolog.InfoLevel, "console")
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	log.Info().Msg("server started")
	if !strings.Contains(buf.String(), "server started") {
		t.Errorf("console output = %q", buf.String())
	}
	if json.Valid(buf.Bytes()) {
		t.Error("console output is JSON")
	}
}
