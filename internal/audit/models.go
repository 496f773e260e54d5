// Package audit implements the tamper-evident compliance log: a per-tenant
// hash chain of immutable events, periodic secret-keyed anchors over the
// chain, and the verification that proves - or disproves - that the record
// has not been altered or selectively deleted.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"ledgerline/internal/audit/canonical"
	"ledgerline/pkg/domain"
)

// Category groups event types by the business operation they record.
type Category string

const (
	CategoryDataAccess   Category = "data_access"
	CategoryConfigChange Category = "config_change"
	CategoryApproval     Category = "approval"
	CategoryTransaction  Category = "transaction"
	CategoryProviderCall Category = "provider_call"
	CategoryErasure      Category = "erasure"
)

// ActorSystem is the actor recorded for events not attributable to a user.
const ActorSystem = "system"

// Event is one link in a tenant's chain. Immutable once written: mutation or
// deletion of a stored event is exactly the tamper this package detects.
type Event struct {
	ID          domain.EventID
	TenantID    domain.TenantID
	Category    Category
	EventType   string
	RefType     string
	RefID       string
	Actor       string
	Payload     canonical.Object
	PIIRedacted bool
	TS          time.Time

	// PrevDigest is the digest of the immediately preceding event for the
	// same tenant; empty only for the tenant's genesis event.
	PrevDigest string
	// Digest is hex(SHA-256(PrevDigest || canonical form)).
	Digest string
}

// CanonicalString returns the deterministic serialization of the event used
// as digest input. The store-assigned ID and the digest itself are excluded;
// absent payloads normalize to an explicit null.
func (e *Event) CanonicalString() string {
	var payload canonical.Value
	if e.Payload == nil {
		payload = canonical.Null()
	} else {
		payload = canonical.Obj(e.Payload)
	}
	return canonical.EncodeRecord(canonical.Object{
		"tenant_id":          canonical.String(e.TenantID.String()),
		"category":           canonical.String(string(e.Category)),
		"event_type":         canonical.String(e.EventType),
		"ref_type":           canonical.String(e.RefType),
		"ref_id":             canonical.String(e.RefID),
		"actor":              canonical.String(e.Actor),
		"payload":            payload,
		"pii_redacted":       canonical.Bool(e.PIIRedacted),
		"ts":                 canonical.String(e.TS.UTC().Format(time.RFC3339Nano)),
		"prev_digest_sha256": canonical.String(e.PrevDigest),
	})
}

// ComputeDigest returns hex(SHA-256(prevDigest || canonical form)) for the
// event's current content. Verification recomputes this from stored fields.
func (e *Event) ComputeDigest() string {
	h := sha256.New()
	h.Write([]byte(e.PrevDigest))
	h.Write([]byte(e.CanonicalString()))
	return hex.EncodeToString(h.Sum(nil))
}

// Anchor is a periodic checkpoint: a chained hash over one UTC day of a
// tenant's event digests, signed with the tenant's anchor key. Possession of
// the key is required to forge a matching HMAC, so even a full chain rewrite
// is detectable against a previously published anchor.
type Anchor struct {
	ID         domain.AnchorID
	TenantID   domain.TenantID
	Period     string // "YYYY-MM-DD", UTC day
	FromTS     time.Time
	ToTS       time.Time
	AnchorSHA  string // aggregate over the period's event digests
	HMACSHA256 string // HMAC-SHA256(AnchorSHA, tenant anchor key)
	EventCount int
	ComputedAt time.Time
}

// PeriodLayout is the date format anchors are keyed by.
const PeriodLayout = "2006-01-02"

// PeriodBounds returns the half-open UTC day [from, to) for a period string.
func PeriodBounds(period string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(PeriodLayout, period, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day.AddDate(0, 0, 1), nil
}

// ViolationType discriminates verification findings.
type ViolationType string

const (
	// ViolationPrevDigestMismatch: the event's stored predecessor digest does
	// not match the digest of the event before it. A broken link.
	ViolationPrevDigestMismatch ViolationType = "prev_digest_mismatch"
	// ViolationDigestMismatch: the event's stored digest does not match the
	// digest recomputed from its own stored content. The content was edited.
	ViolationDigestMismatch ViolationType = "digest_mismatch"
)

// Severity ranks violations for dashboards.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Violation is one verification finding. Findings are reported, never thrown:
// scanning continues past them so a single forgery cannot hide later ones.
type Violation struct {
	Type     ViolationType  `json:"type"`
	Severity Severity       `json:"severity"`
	EventID  domain.EventID `json:"event_id"`
	EventTS  time.Time      `json:"event_ts"`
	Expected string         `json:"expected"`
	Got      string         `json:"got"`
}

// VerifyResult is the structured report returned by chain verification.
type VerifyResult struct {
	TenantID   domain.TenantID `json:"tenant_id"`
	Valid      bool            `json:"valid"`
	EventCount int             `json:"event_count"`
	Violations []Violation     `json:"violations"`
}

// ErasureReceipt confirms an erasure request was recorded and reports the
// outcome of the key-destruction signal.
type ErasureReceipt struct {
	EventID      domain.EventID `json:"event_id"`
	SubjectID    string         `json:"subject_id"`
	RequestedAt  time.Time      `json:"requested_at"`
	KeyDestroyed bool           `json:"key_destroyed"`
}
