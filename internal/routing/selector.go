package routing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/hackgods/telemed-routing/internal/directory"
)

// ClaimFunc is offered each ranked candidate in turn. Returning true takes
// the doctor and ends the scan.
type ClaimFunc func(ctx context.Context, d directory.Doctor) (bool, error)

type Selector struct {
	conflicts *ConflictDetector
}

func NewSelector(conflicts *ConflictDetector) *Selector {
	return &Selector{conflicts: conflicts}
}

// Rank keeps active AVAILABLE doctors and orders them by priority, lowest
// first. Equal priorities keep their candidate order.
func Rank(candidates []directory.Doctor) []directory.Doctor {
	ranked := lo.Filter(candidates, func(d directory.Doctor, _ int) bool {
		return d.Assignable()
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EffectivePriority() < ranked[j].EffectivePriority()
	})
	return ranked
}

// Select returns the first ranked doctor with spare capacity in
// [start, end), or nil when none has any.
func (s *Selector) Select(ctx context.Context, candidates []directory.Doctor, start, end time.Time) (*directory.Doctor, error) {
	return s.SelectWith(ctx, candidates, s.CapacityClaim(start, end))
}

// SelectWith runs the ranked first-fit scan with a caller supplied claim step.
func (s *Selector) SelectWith(ctx context.Context, candidates []directory.Doctor, claim ClaimFunc) (*directory.Doctor, error) {
	for _, d := range Rank(candidates) {
		ok, err := claim(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("claim doctor %s: %w", d.ID, err)
		}
		if ok {
			chosen := d
			return &chosen, nil
		}
	}
	return nil, nil
}

// CapacityClaim accepts a doctor whose overlap count is below capacity.
func (s *Selector) CapacityClaim(start, end time.Time) ClaimFunc {
	return func(ctx context.Context, d directory.Doctor) (bool, error) {
		return s.conflicts.HasCapacity(ctx, d, start, end)
	}
}
