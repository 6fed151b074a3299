package service

import (
	"context"
	"time"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// CachedRoleLookup keeps role sets for a short TTL.
type CachedRoleLookup struct {
	next  RoleLookup
	cache *gocache.Cache
}

func NewCachedRoleLookup(next RoleLookup, ttl time.Duration) *CachedRoleLookup {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedRoleLookup{next: next, cache: gocache.New(ttl, 2*ttl)}
}

func (c *CachedRoleLookup) LookupRoles(ctx context.Context, userID uuid.UUID) ([]entity.Role, error) {
	key := userID.String()
	if cached, ok := c.cache.Get(key); ok {
		return cloneRoles(cached.([]entity.Role)), nil
	}
	roles, err := c.next.LookupRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, cloneRoles(roles))
	return roles, nil
}

func cloneRoles(roles []entity.Role) []entity.Role {
	out := make([]entity.Role, len(roles))
	copy(out, roles)
	return out
}
