package input

import (
	"io"
	"testing"
)

func TestStringReader_ReadString(t *testing.T) {
	t.Run("single input", func(t *testing.T) {
		reader := NewStringReader("yes\n")
		result, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString failed: %v", err)
		}
		if result != "yes\n" {
			t.Errorf("expected 'yes\\n', got '%s'", result)
		}
	})

	t.Run("multiple inputs in order", func(t *testing.T) {
		reader := NewStringReader("first\n", "second\n")

		for _, want := range []string{"first\n", "second\n"} {
			result, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("ReadString failed: %v", err)
			}
			if result != want {
				t.Errorf("expected %q, got %q", want, result)
			}
		}
	})

	t.Run("EOF after all inputs consumed", func(t *testing.T) {
		reader := NewStringReader("yes\n")
		if _, err := reader.ReadString('\n'); err != nil {
			t.Fatalf("ReadString failed: %v", err)
		}

		result, err := reader.ReadString('\n')
		if err != io.EOF {
			t.Errorf("expected io.EOF, got %v", err)
		}
		if result != "" {
			t.Errorf("expected empty string, got '%s'", result)
		}
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  bool
	}{
		{"lowercase y", []string{"y\n"}, true},
		{"lowercase yes", []string{"yes\n"}, true},
		{"uppercase Y", []string{"Y\n"}, true},
		{"mixed case Yes", []string{"Yes\n"}, true},
		{"with surrounding whitespace", []string{"  yes  \n"}, true},
		{"n", []string{"n\n"}, false},
		{"no", []string{"no\n"}, false},
		{"empty line", []string{"\n"}, false},
		{"garbage", []string{"maybe\n"}, false},
		{"EOF means no", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confirm(NewStringReader(tt.input...)); got != tt.want {
				t.Errorf("Confirm(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
