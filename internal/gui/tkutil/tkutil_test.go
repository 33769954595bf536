package tkutil

import "testing"

func TestAtoi(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"":       0,
		"  42 ":  42,
		"-3":     -3,
		"120.75": 120,
		"abc":    0,
	}
	for raw, want := range tests {
		if got := Atoi(raw); got != want {
			t.Fatalf("Atoi(%q) = %d, want %d", raw, got, want)
		}
	}
}
