package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	// Disable color for tests
	color.NoColor = true
}

// captureStdout captures stdout during function execution
func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Also set color output to the same writer
	color.Output = w

	f()

	w.Close()
	os.Stdout = old
	color.Output = os.Stdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestJSON(t *testing.T) {
	t.Run("simple map", func(t *testing.T) {
		data := map[string]interface{}{
			"domain": "pve1.example.com",
			"state":  "verified",
		}

		output := captureStdout(func() {
			_ = JSON(data)
		})

		var result map[string]interface{}
		err := json.Unmarshal([]byte(output), &result)
		if err != nil {
			t.Fatalf("JSON output is invalid: %v", err)
		}

		if result["domain"] != "pve1.example.com" {
			t.Errorf("expected domain pve1.example.com, got %v", result["domain"])
		}
		if result["state"] != "verified" {
			t.Errorf("expected state verified, got %v", result["state"])
		}
	})

	t.Run("struct", func(t *testing.T) {
		type TestStruct struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		}
		data := TestStruct{Name: "test", Value: 42}

		output := captureStdout(func() {
			_ = JSON(data)
		})

		var result TestStruct
		err := json.Unmarshal([]byte(output), &result)
		if err != nil {
			t.Fatalf("JSON output is invalid: %v", err)
		}

		if result.Name != "test" || result.Value != 42 {
			t.Errorf("unexpected result: %+v", result)
		}
	})
}

func TestTable(t *testing.T) {
	t.Run("basic table", func(t *testing.T) {
		headers := []string{"SAN", "EXPIRES"}
		rows := [][]string{
			{"pve1.example.com", "2025-03-01"},
			{"pbs1.example.com", "2025-04-15"},
		}

		output := captureStdout(func() {
			Table(headers, rows)
		})

		for _, want := range []string{"SAN", "EXPIRES", "pve1.example.com", "pbs1.example.com"} {
			if !strings.Contains(output, want) {
				t.Errorf("output should contain %q", want)
			}
		}
	})

	t.Run("empty headers", func(t *testing.T) {
		output := captureStdout(func() {
			Table([]string{}, [][]string{{"data"}})
		})

		if output != "" {
			t.Errorf("expected no output for empty headers, got %s", output)
		}
	})

	t.Run("empty rows", func(t *testing.T) {
		output := captureStdout(func() {
			Table([]string{"COL1", "COL2"}, [][]string{})
		})

		// Should have header and separator but no data rows
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines (header + separator), got %d", len(lines))
		}
	})

	t.Run("uneven columns", func(t *testing.T) {
		headers := []string{"COL1", "COL2", "COL3"}
		rows := [][]string{
			{"a", "b"},           // missing COL3
			{"x", "y", "z", "w"}, // extra column (should be ignored)
		}

		output := captureStdout(func() {
			Table(headers, rows)
		})

		if !strings.Contains(output, "a") {
			t.Error("output should contain value a")
		}
	})

	t.Run("separator line", func(t *testing.T) {
		output := captureStdout(func() {
			Table([]string{"NAME"}, [][]string{{"test"}})
		})

		if !strings.Contains(output, "----") {
			t.Error("table should have a separator line")
		}
	})
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short token fully masked", "abc", "****"},
		{"seven chars fully masked", "abcdefg", "****"},
		{"long token keeps prefix", "cftok-1234567890", "cfto****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Redact(tt.secret); got != tt.want {
				t.Errorf("Redact(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string, ...interface{})
		symbol string
	}{
		{"success", Success, "✓"},
		{"error", Error, "✗"},
		{"warn", Warn, "!"},
		{"info", Info, "→"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureStdout(func() {
				tt.fn("stage %s done", "probe")
			})

			if !strings.Contains(output, "stage probe done") {
				t.Errorf("output should contain formatted message, got %s", output)
			}
			if !strings.Contains(output, tt.symbol) {
				t.Errorf("output should contain symbol %q, got %s", tt.symbol, output)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	output := captureStdout(func() {
		Print("attempt %d of %d", 3, 10)
	})

	if !strings.Contains(output, "attempt 3 of 10") {
		t.Errorf("unexpected output: %s", output)
	}
}
