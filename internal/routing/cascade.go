package routing

import (
	"context"
	"fmt"

	"github.com/hackgods/telemed-routing/internal/directory"
)

type TierOutcome string

const (
	OutcomeSkipped   TierOutcome = "skipped"   // no geographic key, not searched
	OutcomeEmpty     TierOutcome = "empty"     // searched, no candidates
	OutcomeExhausted TierOutcome = "exhausted" // candidates found, none claimable
	OutcomeAssigned  TierOutcome = "assigned"
)

type TierResult struct {
	Tier       TierName    `json:"tier"`
	Key        string      `json:"key,omitempty"`
	Outcome    TierOutcome `json:"outcome"`
	Candidates int         `json:"candidates"`
}

type Result struct {
	Doctor *directory.Doctor
	Tier   TierName
	Trace  []TierResult
}

func (r Result) Assigned() bool { return r.Doctor != nil }

// Exhausted reports whether some tier had candidates but none could be
// claimed, i.e. the booking sat in ASSIGNING before the search gave up.
func (r Result) Exhausted() bool {
	for _, t := range r.Trace {
		if t.Outcome == OutcomeExhausted {
			return true
		}
	}
	return false
}

// Cascade evaluates tiers left to right and stops at the first one whose
// candidates yield a claimed doctor. Tiers after the winner are not searched.
func (s *Selector) Cascade(ctx context.Context, tiers []Tier, claim ClaimFunc) (Result, error) {
	var res Result
	for _, tier := range tiers {
		if tier.Skipped() {
			res.Trace = append(res.Trace, TierResult{Tier: tier.Name, Outcome: OutcomeSkipped})
			continue
		}

		candidates, err := tier.Search(ctx)
		if err != nil {
			return res, fmt.Errorf("search %s tier: %w", tier.Name, err)
		}

		entry := TierResult{Tier: tier.Name, Key: tier.Key, Candidates: len(candidates)}
		if len(candidates) == 0 {
			entry.Outcome = OutcomeEmpty
			res.Trace = append(res.Trace, entry)
			continue
		}

		chosen, err := s.SelectWith(ctx, candidates, claim)
		if err != nil {
			return res, err
		}
		if chosen == nil {
			entry.Outcome = OutcomeExhausted
			res.Trace = append(res.Trace, entry)
			continue
		}

		entry.Outcome = OutcomeAssigned
		res.Trace = append(res.Trace, entry)
		res.Doctor = chosen
		res.Tier = tier.Name
		return res, nil
	}
	return res, nil
}
