package output

import (
	"strings"
	"testing"
)

func TestScoreBar(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tests := []struct {
		score  int
		width  int
		filled int
	}{
		{80, 10, 8},
		{0, 10, 0},
		{100, 10, 10},
		{150, 10, 10},
		{-5, 10, 0},
		{50, 0, 10}, // default width 20
	}

	for _, tc := range tests {
		got := ScoreBar(tc.score, tc.width)
		if n := strings.Count(got, "█"); n != tc.filled {
			t.Errorf("ScoreBar(%d, %d) filled = %d, want %d", tc.score, tc.width, n, tc.filled)
		}
	}

	if got := ScoreBar(85, 10); !strings.HasSuffix(got, "85/100") {
		t.Errorf("ScoreBar suffix = %q", got)
	}
}

func TestTrendArrow(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := TrendArrow(0, true); got != "─" {
		t.Errorf("TrendArrow(0) = %q", got)
	}
	if got := TrendArrow(5, true); got != "▲ +5" {
		t.Errorf("TrendArrow(5) = %q", got)
	}
	if got := TrendArrow(-3, true); got != "▼ -3" {
		t.Errorf("TrendArrow(-3) = %q", got)
	}
}

func TestStatusIcon(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	want := map[string]string{
		"ok":      "✓",
		"warning": "!",
		"error":   "✗",
		"info":    "i",
		"unknown": "?",
		"":        "?",
	}
	for status, icon := range want {
		if got := StatusIcon(status); got != icon {
			t.Errorf("StatusIcon(%q) = %q, want %q", status, got, icon)
		}
	}
}
