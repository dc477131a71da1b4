package cache

import (
	"testing"
	"time"

	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache[string, int]()
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheIgnoresNonPositiveTTL(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestSiteResolverCacheSkipsZeroIDs(t *testing.T) {
	c := NewSiteResolverCache()
	c.Set(SiteOwner{SiteID: oid.New()})
	siteID := oid.New()
	c.Set(SiteOwner{SiteID: siteID, OwnerID: oid.New(), Active: true})

	got, ok := c.Get(siteID)
	assert.True(t, ok)
	assert.True(t, got.Active)

	c.Invalidate(siteID)
	_, ok = c.Get(siteID)
	assert.False(t, ok)
}
