package tokens

import (
	"strings"
	"testing"
)

// TestEstimate tests the ceiling division at boundaries.
func TestEstimate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"one char", "a", 1},
		{"two chars", "ab", 1},
		{"three chars", "abc", 1},
		{"four chars", "abcd", 2},
		{"six chars", "abcdef", 2},
		{"seven chars", "abcdefg", 3},
		{"hello world", "hello world", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.input); got != tt.want {
				t.Errorf("Estimate(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// TestEstimate_Monotonic tests that longer text never costs fewer tokens.
func TestEstimate_Monotonic(t *testing.T) {
	prev := 0
	for i := 1; i <= 100; i++ {
		got := Estimate(strings.Repeat("x", i))
		if got < prev {
			t.Fatalf("Estimate(%d chars) = %d, less than %d for shorter text", i, got, prev)
		}
		prev = got
	}
}

// TestEstimate_Deterministic tests repeat calls agree.
func TestEstimate_Deterministic(t *testing.T) {
	input := "An email thread with several lines.\nRegards,\nSender"
	first := Estimate(input)
	for i := 0; i < 10; i++ {
		if got := Estimate(input); got != first {
			t.Fatalf("Estimate() = %d on call %d, want %d", got, i, first)
		}
	}
}

// TestBudget tests fragment summation plus buffers.
func TestBudget(t *testing.T) {
	got := Budget([]string{"abc", "abcd"}, SystemMessageBuffer, ResponseBuffer)
	want := 1 + 2 + SystemMessageBuffer + ResponseBuffer
	if got != want {
		t.Errorf("Budget() = %d, want %d", got, want)
	}
}

// TestBudget_Empty tests zero fragments and no buffers.
func TestBudget_Empty(t *testing.T) {
	if got := Budget(nil); got != 0 {
		t.Errorf("Budget(nil) = %d, want 0", got)
	}
}
