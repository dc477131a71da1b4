package cache

import (
	"time"

	"github.com/smallbiznis/breakeven/pkg/oid"
)

const defaultSiteTTL = 30 * time.Second

// SiteOwner is the minimal projection needed to attribute a site callback.
type SiteOwner struct {
	SiteID  oid.ID
	OwnerID oid.ID
	Active  bool
}

// SiteResolverCache keeps site → owner lookups off the database for the
// public callback hot path.
type SiteResolverCache interface {
	Get(siteID oid.ID) (SiteOwner, bool)
	Set(owner SiteOwner)
	Invalidate(siteID oid.ID)
}

type siteResolverCache struct {
	items Cache[oid.ID, SiteOwner]
	ttl   time.Duration
}

func NewSiteResolverCache() SiteResolverCache {
	return &siteResolverCache{
		items: NewTTLCache[oid.ID, SiteOwner](),
		ttl:   defaultSiteTTL,
	}
}

func (c *siteResolverCache) Get(siteID oid.ID) (SiteOwner, bool) {
	return c.items.Get(siteID)
}

func (c *siteResolverCache) Set(owner SiteOwner) {
	if owner.SiteID.IsZero() || owner.OwnerID.IsZero() {
		return
	}
	c.items.Set(owner.SiteID, owner, c.ttl)
}

func (c *siteResolverCache) Invalidate(siteID oid.ID) {
	c.items.Delete(siteID)
}
