package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		input string
		want  LogLevel
	}{
		{"error", LogLevelError},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"info", LogLevelInfo},
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"Warning", LogLevelWarn},
	}
	for _, tc := range cases {
		got, err := parseLogLevel(tc.input)
		if err != nil {
			t.Errorf("parseLogLevel(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseLogLevel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	for _, input := range []string{"", "verbose", "trace", "warn ning"} {
		if _, err := parseLogLevel(input); err == nil {
			t.Errorf("parseLogLevel(%q): expected error, got none", input)
		}
	}
}

func TestSetupLogger_WritesToGivenSink(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, LogLevelInfo)

	logger.Info("camera selected", "id", "0-null")
	out := buf.String()
	if !strings.Contains(out, "camera selected") || !strings.Contains(out, "id=0-null") {
		t.Errorf("expected info record in output, got %q", out)
	}
}

func TestSetupLogger_LevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, LogLevelWarn)

	logger.Debug("suppressed")
	logger.Info("also suppressed")
	if buf.Len() != 0 {
		t.Fatalf("records below warn should be dropped, got %q", buf.String())
	}

	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn record in output, got %q", buf.String())
	}
}
