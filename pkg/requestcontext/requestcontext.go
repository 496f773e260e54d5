// Package requestcontext carries per-request metadata through context.Context.
// Middleware writes values on the way in; services and handlers read them with
// the typed accessors so context keys never leak across packages.
package requestcontext

import (
	"context"

	"ledgerline/pkg/domain"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	tenantIDKey
	actorKey
	clientIPKey
	userAgentKey
	deviceKey
)

// WithRequestID stores the correlation ID for the current request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the correlation ID, or "" when none was set.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithTenantID stores the authenticated caller's tenant.
func WithTenantID(ctx context.Context, tenantID domain.TenantID) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantID returns the authenticated tenant, or "" when the request carries
// no session context.
func TenantID(ctx context.Context) domain.TenantID {
	v, _ := ctx.Value(tenantIDKey).(domain.TenantID)
	return v
}

// WithActor stores the authenticated subject (user ID or "system").
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// Actor returns the authenticated subject, or "" when unauthenticated.
func Actor(ctx context.Context) string {
	v, _ := ctx.Value(actorKey).(string)
	return v
}

// WithClientMetadata stores the client IP and raw User-Agent extracted by the
// metadata middleware.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, ip)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// ClientIP returns the client IP as seen at the edge, or "" when unknown.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// UserAgent returns the raw User-Agent header, or "".
func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(userAgentKey).(string)
	return v
}

// WithDevice stores the human-readable device description derived from the
// User-Agent (e.g. "Chrome on macOS").
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey, device)
}

// Device returns the device description, or "".
func Device(ctx context.Context) string {
	v, _ := ctx.Value(deviceKey).(string)
	return v
}
