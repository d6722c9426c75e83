package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/directory"
)

// OverlapCounter is the store aggregate behind conflict detection: the
// number of SCHEDULED appointments of doctorID overlapping [start, end).
type OverlapCounter interface {
	CountOverlappingScheduled(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (int, error)
}

// Overlaps is the half-open interval predicate every conflict check reduces to.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

type ConflictDetector struct {
	store OverlapCounter
}

func NewConflictDetector(store OverlapCounter) *ConflictDetector {
	return &ConflictDetector{store: store}
}

func (c *ConflictDetector) CountOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (int, error) {
	n, err := c.store.CountOverlappingScheduled(ctx, doctorID, start, end)
	if err != nil {
		return 0, fmt.Errorf("count overlapping appointments: %w", err)
	}
	return n, nil
}

// HasCapacity reports whether d can take one more appointment in [start, end).
func (c *ConflictDetector) HasCapacity(ctx context.Context, d directory.Doctor, start, end time.Time) (bool, error) {
	n, err := c.CountOverlapping(ctx, d.ID, start, end)
	if err != nil {
		return false, err
	}
	return n < d.Capacity(), nil
}
