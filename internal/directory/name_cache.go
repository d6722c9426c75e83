package directory

import (
	"context"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

type nameKind uint8

const (
	kindPatient nameKind = iota
	kindUser
)

type nameKey struct {
	kind nameKind
	id   uuid.UUID
}

// NameCache resolves display names for response projections. Names change
// rarely, so they are kept in a bounded LRU; availability data is never cached.
type NameCache struct {
	patients PatientLookup
	users    UserLookup
	cache    *lru.Cache[nameKey, string]
}

func NewNameCache(patients PatientLookup, users UserLookup, size int) (*NameCache, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[nameKey, string](size)
	if err != nil {
		return nil, err
	}
	return &NameCache{patients: patients, users: users, cache: cache}, nil
}

// PatientName returns "" when the patient cannot be resolved.
func (c *NameCache) PatientName(ctx context.Context, id uuid.UUID) string {
	key := nameKey{kind: kindPatient, id: id}
	if name, ok := c.cache.Get(key); ok {
		return name
	}
	p, err := c.patients.GetPatient(ctx, id)
	if err != nil {
		return ""
	}
	c.cache.Add(key, p.Name)
	return p.Name
}

// UserName resolves doctors and CHWs by their user id. Returns "" for nil ids
// and unresolvable users.
func (c *NameCache) UserName(ctx context.Context, id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	key := nameKey{kind: kindUser, id: *id}
	if name, ok := c.cache.Get(key); ok {
		return name
	}
	u, err := c.users.GetUser(ctx, *id)
	if err != nil {
		return ""
	}
	c.cache.Add(key, u.FullName)
	return u.FullName
}
