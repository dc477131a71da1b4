package ownercontext

import (
	"context"
	"strings"

	obsctx "github.com/smallbiznis/breakeven/internal/observability/context"
	"github.com/smallbiznis/breakeven/pkg/oid"
)

// OwnerContextKey is the request context key for the authenticated owner ID.
type OwnerContextKey struct{}

// WithOwnerID stores the owner ID in the context and tags it for logging.
func WithOwnerID(ctx context.Context, ownerID oid.ID) context.Context {
	ctx = obsctx.WithOwnerID(ctx, ownerID.String())
	return context.WithValue(ctx, OwnerContextKey{}, ownerID)
}

// OwnerIDFromContext returns the owner ID from context, if set.
func OwnerIDFromContext(ctx context.Context) (oid.ID, bool) {
	if ctx == nil {
		return oid.Nil, false
	}

	switch typed := ctx.Value(OwnerContextKey{}).(type) {
	case oid.ID:
		return typed, !typed.IsZero()
	case string:
		parsed, err := oid.Parse(strings.TrimSpace(typed))
		if err == nil {
			return parsed, !parsed.IsZero()
		}
	}
	return oid.Nil, false
}
