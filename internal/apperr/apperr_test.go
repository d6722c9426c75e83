package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound_WrapsSentinel(t *testing.T) {
	err := NotFound("patient")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "patient not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidation_Message(t *testing.T) {
	err := Validation("endTime must be after startTime")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if err.Error() != "validation failed: endTime must be after startTime" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", Validation("bad"), true},
		{"not found", NotFound("encounter"), true},
		{"conflict wrapped twice", fmt.Errorf("cancel: %w", Conflict("completed")), true},
		{"infrastructure", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClientError(tt.err); got != tt.want {
				t.Errorf("IsClientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
