// Package context carries request-scoped correlation values for logs and traces.
package context

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	ownerIDKey
	siteIDKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithOwnerID tags the context with the hex owner id for log correlation.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	if ownerID == "" {
		return ctx
	}
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

func OwnerIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ownerIDKey)
}

func WithSiteID(ctx context.Context, siteID string) context.Context {
	if siteID == "" {
		return ctx
	}
	return context.WithValue(ctx, siteIDKey, siteID)
}

func SiteIDFromContext(ctx context.Context) string {
	return stringValue(ctx, siteIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
