package audit

import (
	"context"
	"time"

	"ledgerline/internal/sentinel"
	"ledgerline/pkg/domain"
)

// Storage-level sentinel errors. Stores return these (optionally wrapped) so
// the service can translate them into domain errors exactly once.
var (
	ErrNotFound       = sentinel.ErrNotFound
	ErrTailMoved      = sentinel.ErrTailMoved
	ErrPeriodAnchored = sentinel.ErrAlreadyUsed
)

// Query selects a tenant's events. From/To are optional half-open bounds on
// TS; AfterTS/AfterID form a cursor for pagination so large histories are
// streamed rather than materialized.
type Query struct {
	TenantID domain.TenantID
	From     time.Time
	To       time.Time
	AfterTS  time.Time
	AfterID  domain.EventID
	Limit    int
}

// Store is the durable event store. Implementations must order events
// strictly by (ts, id) per tenant and enforce the compare-and-append
// discipline: the store, not any process-local cache, is the source of truth
// for the chain tail.
type Store interface {
	// Append persists the event in a single atomic create. expectedPrev is
	// the tail digest the caller observed; the write must fail with
	// ErrTailMoved if the tenant's current tail digest differs, so two
	// concurrent writers can never fork the chain.
	Append(ctx context.Context, event *Event, expectedPrev string) (*Event, error)

	// Tail returns the tenant's most recent event, or ErrNotFound when the
	// tenant has no events yet.
	Tail(ctx context.Context, tenantID domain.TenantID) (*Event, error)

	// List returns matching events in ascending (ts, id) order.
	List(ctx context.Context, q Query) ([]Event, error)

	// CreateAnchor persists an anchor. Returns ErrPeriodAnchored when the
	// tenant+period is already anchored, keeping anchoring idempotent.
	CreateAnchor(ctx context.Context, anchor *Anchor) (*Anchor, error)

	// FindAnchor returns the anchor for a tenant+period, or ErrNotFound.
	FindAnchor(ctx context.Context, tenantID domain.TenantID, period string) (*Anchor, error)

	// TenantIDs lists every tenant with at least one event. Used by the
	// anchor worker to sweep all chains.
	TenantIDs(ctx context.Context) ([]domain.TenantID, error)
}
