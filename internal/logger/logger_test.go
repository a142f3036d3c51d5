package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	Init(false)
	if GetLevel() != LevelWarn {
		t.Errorf("Init(false) should set level to LevelWarn, got %v", GetLevel())
	}

	Init(true)
	if GetLevel() != LevelDebug {
		t.Errorf("Init(true) should set level to LevelDebug, got %v", GetLevel())
	}

	Init(false)
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if tt.level.String() != tt.expected {
				t.Errorf("Level(%d).String() = %v, want %v", tt.level, tt.level.String(), tt.expected)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	tests := []struct {
		name       string
		level      Level
		logFunc    func(string, ...interface{})
		shouldShow bool
	}{
		{"debug at debug level", LevelDebug, Debug, true},
		{"info at debug level", LevelDebug, Info, true},
		{"debug at info level", LevelInfo, Debug, false},
		{"debug at warn level", LevelWarn, Debug, false},
		{"info at warn level", LevelWarn, Info, false},
		{"warn at warn level", LevelWarn, Warn, true},
		{"error at warn level", LevelWarn, Error, true},
		{"warn at error level", LevelError, Warn, false},
		{"error at error level", LevelError, Error, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			SetLevel(tt.level)

			tt.logFunc("test message")

			hasOutput := buf.Len() > 0
			if hasOutput != tt.shouldShow {
				t.Errorf("got output=%v, want output=%v", hasOutput, tt.shouldShow)
			}
		})
	}

	SetLevel(LevelWarn)
}

func TestLogFormatting(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer func() {
		SetOutput(nil)
		SetLevel(LevelWarn)
	}()

	Debug("probing %s attempt %d", "pve1.example.com:8006", 1)
	output := buf.String()

	if !strings.HasPrefix(output, "[DEBUG]") {
		t.Errorf("Missing [DEBUG] prefix: %s", output)
	}
	if !strings.Contains(output, "probing pve1.example.com:8006 attempt 1") {
		t.Errorf("Missing formatted message: %s", output)
	}
}

func TestLogFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer func() {
		SetOutput(nil)
		SetLevel(LevelWarn)
	}()

	DebugFields("stage done", map[string]interface{}{
		"stage":   "probe",
		"version": "8.2.4",
		"elapsed": 12,
	})
	output := buf.String()

	if !strings.Contains(output, "stage done") {
		t.Errorf("Missing message: %s", output)
	}

	// Fields are emitted in sorted key order
	elapsedIdx := strings.Index(output, "elapsed=12")
	stageIdx := strings.Index(output, "stage=probe")
	versionIdx := strings.Index(output, "version=8.2.4")

	if elapsedIdx == -1 || stageIdx == -1 || versionIdx == -1 {
		t.Fatalf("Missing fields in output: %s", output)
	}
	if !(elapsedIdx < stageIdx && stageIdx < versionIdx) {
		t.Errorf("Fields not sorted alphabetically: %s", output)
	}
}

func TestEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer func() {
		SetOutput(nil)
		SetLevel(LevelWarn)
	}()

	InfoFields("no fields", nil)
	output := strings.TrimSpace(buf.String())

	if !strings.Contains(output, "no fields") {
		t.Errorf("Message should be present: %s", output)
	}
	if strings.HasSuffix(output, " ") {
		t.Errorf("Should not have trailing space: %q", output)
	}
}

func TestAllFieldVariants(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer func() {
		SetOutput(nil)
		SetLevel(LevelWarn)
	}()

	WarnFields("warn", map[string]interface{}{"attempt": 2})
	ErrorFields("error", map[string]interface{}{"attempt": 3})

	output := buf.String()
	if !strings.Contains(output, "[WARN]") || !strings.Contains(output, "attempt=2") {
		t.Error("WarnFields output incorrect")
	}
	if !strings.Contains(output, "[ERROR]") || !strings.Contains(output, "attempt=3") {
		t.Error("ErrorFields output incorrect")
	}
}
