package routing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/telemed-routing/internal/directory"
)

type TierName string

const (
	TierExplicit     TierName = "explicit"
	TierVillage      TierName = "village"
	TierBlock        TierName = "block"
	TierDistrict     TierName = "district"
	TierDistrictWide TierName = "district_wide"
)

// Tier is one candidate provider. Key is the geographic value searched;
// a tier with a blank key is skipped rather than searched.
type Tier struct {
	Name   TierName
	Key    string
	Search func(ctx context.Context) ([]directory.Doctor, error)
}

func (t Tier) Skipped() bool {
	return strings.TrimSpace(t.Key) == ""
}

type Resolver struct {
	doctors         directory.DoctorLookup
	defaultDistrict string
}

type ResolverOption func(*Resolver)

// WithDefaultDistrict sets the district searched for patients whose record
// carries none. Single-district deployments use this.
func WithDefaultDistrict(district string) ResolverOption {
	return func(r *Resolver) {
		r.defaultDistrict = strings.TrimSpace(district)
	}
}

func NewResolver(doctors directory.DoctorLookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{doctors: doctors}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCandidates returns the ordered tiers for a booking: the explicit
// doctor first when given, then village, block, district and the
// district-wide fallback. Tiers are lazy; nothing is queried until Search.
func (r *Resolver) ResolveCandidates(p directory.Patient, village string, explicitDoctorID *uuid.UUID) []Tier {
	var tiers []Tier
	if explicitDoctorID != nil {
		tiers = append(tiers, r.ExplicitTier(*explicitDoctorID))
	}
	return append(tiers, r.GeographicTiers(p, village)...)
}

// ExplicitTier yields the singleton requested doctor, or nothing when the id
// has no doctor profile.
func (r *Resolver) ExplicitTier(id uuid.UUID) Tier {
	return Tier{
		Name: TierExplicit,
		Key:  id.String(),
		Search: func(ctx context.Context) ([]directory.Doctor, error) {
			d, err := r.doctors.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, directory.ErrDoctorNotFound) {
					return nil, nil
				}
				return nil, err
			}
			return []directory.Doctor{*d}, nil
		},
	}
}

// GeographicTiers builds tiers 2 through 5. The district tier and the
// district-wide tier run the same query but stay distinct so each
// exhaustion point is observable.
func (r *Resolver) GeographicTiers(p directory.Patient, village string) []Tier {
	village = strings.TrimSpace(village)
	if village == "" {
		village = strings.TrimSpace(p.Village)
	}
	district := strings.TrimSpace(p.District)
	if district == "" {
		district = r.defaultDistrict
	}
	block := strings.TrimSpace(p.Block)

	return []Tier{
		{
			Name: TierVillage,
			Key:  village,
			Search: func(ctx context.Context) ([]directory.Doctor, error) {
				return r.doctors.FindByVillage(ctx, village)
			},
		},
		{
			Name: TierBlock,
			Key:  block,
			Search: func(ctx context.Context) ([]directory.Doctor, error) {
				return r.doctors.FindByBlock(ctx, block)
			},
		},
		{
			Name: TierDistrict,
			Key:  district,
			Search: func(ctx context.Context) ([]directory.Doctor, error) {
				return r.doctors.FindByDistrict(ctx, district)
			},
		},
		{
			Name: TierDistrictWide,
			Key:  district,
			Search: func(ctx context.Context) ([]directory.Doctor, error) {
				return r.doctors.FindByDistrict(ctx, district)
			},
		},
	}
}
