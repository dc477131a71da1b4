// Package archive keeps a copy of every deployed bundle in object storage.
package archive

import (
	"context"
	"fmt"
	"time"
)

type Provider interface {
	// Put stores the archive and returns the key it was written under.
	Put(ctx context.Context, key string, archive []byte) (string, error)
	Enabled() bool
}

// BundleKey lays bundles out per owner and site, newest last.
func BundleKey(ownerID, siteID string, at time.Time) string {
	return fmt.Sprintf("bundles/%s/%s/%s.zip", ownerID, siteID, at.UTC().Format("20060102T150405Z"))
}

type NoOpProvider struct{}

func (NoOpProvider) Put(context.Context, string, []byte) (string, error) { return "", nil }

func (NoOpProvider) Enabled() bool { return false }
