package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledgerline/internal/audit/canonical"
	"ledgerline/pkg/domain"
)

func TestComputeDigestIsDeterministic(t *testing.T) {
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	build := func(payload canonical.Object) *Event {
		return &Event{
			TenantID:  "tenant-a",
			Category:  CategoryTransaction,
			EventType: "payment_settled",
			Actor:     "user-1",
			Payload:   payload,
			TS:        ts,
		}
	}

	a := build(canonical.Object{"amount": canonical.Int(100), "currency": canonical.String("EUR")})
	b := build(canonical.Object{"currency": canonical.String("EUR"), "amount": canonical.Int(100)})

	// Map construction order must never leak into the digest.
	require.Equal(t, a.ComputeDigest(), b.ComputeDigest())

	c := build(canonical.Object{"amount": canonical.Int(101), "currency": canonical.String("EUR")})
	require.NotEqual(t, a.ComputeDigest(), c.ComputeDigest())
}

func TestComputeDigestCoversEveryField(t *testing.T) {
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	base := Event{
		TenantID:   "tenant-a",
		Category:   CategoryTransaction,
		EventType:  "payment_settled",
		RefType:    "transaction",
		RefID:      "tx-1",
		Actor:      "user-1",
		TS:         ts,
		PrevDigest: "prev",
	}

	mutations := map[string]func(*Event){
		"tenant":       func(e *Event) { e.TenantID = "tenant-b" },
		"category":     func(e *Event) { e.Category = CategoryApproval },
		"event type":   func(e *Event) { e.EventType = "payment_reversed" },
		"ref type":     func(e *Event) { e.RefType = "refund" },
		"ref id":       func(e *Event) { e.RefID = "tx-2" },
		"actor":        func(e *Event) { e.Actor = "user-2" },
		"pii flag":     func(e *Event) { e.PIIRedacted = true },
		"timestamp":    func(e *Event) { e.TS = ts.Add(time.Microsecond) },
		"prev digest":  func(e *Event) { e.PrevDigest = "other" },
		"null payload": func(e *Event) { e.Payload = canonical.Object{} },
	}

	original := base.ComputeDigest()
	for name, mutate := range mutations {
		e := base
		mutate(&e)
		require.NotEqual(t, original, e.ComputeDigest(), "mutating %s must change the digest", name)
	}
}

func TestDigestExcludesStoreAssignedID(t *testing.T) {
	e := Event{TenantID: "tenant-a", Category: CategoryErasure, EventType: "erasure_request",
		Actor: ActorSystem, TS: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	withoutID := e.ComputeDigest()

	stored := e
	stored.ID = domain.NewEventID()
	require.Equal(t, withoutID, stored.ComputeDigest())
}

func TestPeriodBounds(t *testing.T) {
	from, to, err := PeriodBounds("2025-06-15")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), to)

	_, _, err = PeriodBounds("15/06/2025")
	require.Error(t, err)
}
