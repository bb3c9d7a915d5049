package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWriterEnvironment(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "development", "").Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Errorf("development logger = %q, want text debug output", buf.String())
	}

	buf.Reset()
	log := NewWriter(&buf, "production", "")
	log.Debug("hidden")
	log.Info("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("production logger wrote debug record: %q", out)
	}
	if !strings.HasPrefix(out, "{") {
		t.Errorf("production logger = %q, want JSON", out)
	}
}

func TestNewWriterLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "development", "warn")
	log.Info("quiet")
	log.Warn("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Errorf("output = %q, want only the warning", buf.String())
	}
}
