package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/hackgods/telemed-routing/internal/apperr"
)

func TestParseFlexible(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}
	want := time.Date(2030, 1, 15, 10, 0, 0, 0, ist)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2030-01-15T10:00", want},
		{"2030-01-15T10:00:00", want},
		{"2030-01-15T10:00:00.000", want},
		{" 2030-01-15 10:00 ", want},
		{"2030-01-15T04:30:00Z", want},
		{"2030-01-15T10:00:00+05:30", want},
		{"2030-01-15T10:00:07", want.Add(7 * time.Second)},
	}
	for _, tt := range tests {
		got, err := ParseFlexible(tt.in, ist)
		if err != nil {
			t.Errorf("ParseFlexible(%q): unexpected error %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseFlexible(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseFlexible_Rejects(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2030-13-01T10:00", "10:00", "2030-01-15"} {
		if _, err := ParseFlexible(in, time.UTC); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("ParseFlexible(%q): expected validation error, got %v", in, err)
		}
	}
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{"": TypeVideo, "video": TypeVideo, " Audio ": TypeAudio, "IN_PERSON": TypeInPerson}
	for in, want := range tests {
		got, err := ParseType(in)
		if err != nil || got != want {
			t.Errorf("ParseType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseType("fax"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
