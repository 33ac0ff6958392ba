package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelWarn)
	log.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	log.Debug("hidden %d", 1)
	log.Info("hidden too")
	log.Warn("shown %s", "warn")
	log.With("translator").Error("boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the threshold leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] 03:04:05: shown warn") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] 03:04:05: translator: boom") {
		t.Errorf("missing prefixed error line: %q", out)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var log *Logger
	log.Info("nothing happens")
	if log.Enabled(LevelError) {
		t.Error("nil logger must report disabled")
	}
	if log.With("x") != nil {
		t.Error("With on nil logger should stay nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "warning": LevelWarn, "error": LevelError, "quiet": LevelQuiet}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	info := GetVersionInfo()
	info.Prelude = "1.4.0"
	PrintVersion(&buf, "orizon-verify", info, false)
	if !strings.Contains(buf.String(), "orizon-verify v"+Version) || !strings.Contains(buf.String(), "Prelude: 1.4.0") {
		t.Errorf("unexpected version text: %q", buf.String())
	}

	buf.Reset()
	PrintVersion(&buf, "orizon-verify", info, true)
	if !strings.Contains(buf.String(), `"tool": "orizon-verify"`) {
		t.Errorf("unexpected JSON: %q", buf.String())
	}
}
