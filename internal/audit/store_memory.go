package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ledgerline/pkg/domain"
)

// InMemoryStore keeps chains in memory for tests and the demo environment.
// It enforces the same compare-and-append discipline as the durable stores.
type InMemoryStore struct {
	mu      sync.RWMutex
	chains  map[domain.TenantID][]Event
	anchors map[string]Anchor // key: tenant + "\x00" + period
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		chains:  make(map[domain.TenantID][]Event),
		anchors: make(map[string]Anchor),
	}
}

// Append implements the optimistic compare-and-append.
func (s *InMemoryStore) Append(_ context.Context, event *Event, expectedPrev string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.chains[event.TenantID]
	tail := ""
	if n := len(chain); n > 0 {
		tail = chain[n-1].Digest
	}
	if tail != expectedPrev {
		return nil, fmt.Errorf("append %s: %w", event.TenantID, ErrTailMoved)
	}

	stored := *event
	if stored.ID.IsNil() {
		stored.ID = domain.NewEventID()
	}
	stored.Payload = event.Payload.Clone()
	s.chains[event.TenantID] = append(chain, stored)

	out := stored
	return &out, nil
}

// Tail returns the most recent event for a tenant.
func (s *InMemoryStore) Tail(_ context.Context, tenantID domain.TenantID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.chains[tenantID]
	if len(chain) == 0 {
		return nil, ErrNotFound
	}
	out := chain[len(chain)-1]
	return &out, nil
}

// List returns matching events ordered ascending by (ts, id).
func (s *InMemoryStore) List(_ context.Context, q Query) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.chains[q.TenantID] {
		if !q.From.IsZero() && e.TS.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !e.TS.Before(q.To) {
			continue
		}
		if !q.AfterTS.IsZero() {
			if e.TS.Before(q.AfterTS) {
				continue
			}
			if e.TS.Equal(q.AfterTS) && e.ID.String() <= q.AfterID.String() {
				continue
			}
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TS.Equal(out[j].TS) {
			return out[i].TS.Before(out[j].TS)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// CreateAnchor stores the anchor once per tenant+period.
func (s *InMemoryStore) CreateAnchor(_ context.Context, anchor *Anchor) (*Anchor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := anchorKey(anchor.TenantID, anchor.Period)
	if _, exists := s.anchors[key]; exists {
		return nil, fmt.Errorf("anchor %s/%s: %w", anchor.TenantID, anchor.Period, ErrPeriodAnchored)
	}

	stored := *anchor
	if stored.ID.IsNil() {
		stored.ID = domain.NewAnchorID()
	}
	s.anchors[key] = stored

	out := stored
	return &out, nil
}

// FindAnchor returns the anchor for a tenant+period.
func (s *InMemoryStore) FindAnchor(_ context.Context, tenantID domain.TenantID, period string) (*Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.anchors[anchorKey(tenantID, period)]
	if !ok {
		return nil, ErrNotFound
	}
	out := a
	return &out, nil
}

// TenantIDs lists tenants with at least one event, sorted for determinism.
func (s *InMemoryStore) TenantIDs(_ context.Context) ([]domain.TenantID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TenantID, 0, len(s.chains))
	for id, chain := range s.chains {
		if len(chain) > 0 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Tamper mutates a stored event in place. Only tests use this: it simulates
// the out-of-band edits verification exists to catch.
func (s *InMemoryStore) Tamper(tenantID domain.TenantID, index int, mutate func(*Event)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.chains[tenantID]
	if index < 0 || index >= len(chain) {
		return false
	}
	mutate(&chain[index])
	return true
}

func anchorKey(tenantID domain.TenantID, period string) string {
	return tenantID.String() + "\x00" + period
}
