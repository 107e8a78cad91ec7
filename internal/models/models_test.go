package models

import (
	"errors"
	"testing"
)

// ============================================================================
// Enum Tests
// ============================================================================

func TestParseLane(t *testing.T) {
	tests := []struct {
		in      string
		want    Lane
		wantErr bool
	}{
		{"todo", LaneTodo, false},
		{"inProgress", LaneInProgress, false},
		{"complete", LaneComplete, false},
		{"done", "", true},
		{"", "", true},
		{"TODO", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLane(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidLane) {
				t.Errorf("ParseLane(%q) error = %v, want ErrInvalidLane", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLane(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLane(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	for _, c := range Colors {
		got, err := ParseColor(string(c))
		if err != nil {
			t.Errorf("ParseColor(%q) unexpected error: %v", c, err)
		}
		if got != c {
			t.Errorf("ParseColor(%q) = %q", c, got)
		}
	}

	if _, err := ParseColor("teal"); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("ParseColor(teal) error = %v, want ErrInvalidColor", err)
	}
}

func TestDefaultStatuses_CoverEveryLane(t *testing.T) {
	if len(DefaultStatuses) != len(Lanes) {
		t.Fatalf("Expected %d default statuses, got %d", len(Lanes), len(DefaultStatuses))
	}
	for i, ds := range DefaultStatuses {
		if ds.Lane != Lanes[i] {
			t.Errorf("Default status %d lane = %q, want %q", i, ds.Lane, Lanes[i])
		}
		if _, err := ParseColor(string(ds.Color)); err != nil {
			t.Errorf("Default status %q has invalid color %q", ds.Title, ds.Color)
		}
	}
}
