package handler

import (
	"time"

	"ledgerline/internal/audit"
	"ledgerline/internal/audit/canonical"
)

type eventResponse struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	Category    string           `json:"category"`
	EventType   string           `json:"event_type"`
	RefType     string           `json:"ref_type,omitempty"`
	RefID       string           `json:"ref_id,omitempty"`
	Actor       string           `json:"actor"`
	Payload     canonical.Object `json:"payload,omitempty"`
	PIIRedacted bool             `json:"pii_redacted"`
	TS          time.Time        `json:"ts"`
	PrevDigest  string           `json:"prev_digest_sha256"`
	Digest      string           `json:"digest_sha256"`
}

func toEventResponse(e *audit.Event) eventResponse {
	return eventResponse{
		ID:          e.ID.String(),
		TenantID:    e.TenantID.String(),
		Category:    string(e.Category),
		EventType:   e.EventType,
		RefType:     e.RefType,
		RefID:       e.RefID,
		Actor:       e.Actor,
		Payload:     e.Payload,
		PIIRedacted: e.PIIRedacted,
		TS:          e.TS,
		PrevDigest:  e.PrevDigest,
		Digest:      e.Digest,
	}
}

type eventListResponse struct {
	Events []eventResponse `json:"events"`
	Count  int             `json:"count"`
}

func toEventListResponse(events []audit.Event) eventListResponse {
	out := eventListResponse{Events: make([]eventResponse, 0, len(events))}
	for i := range events {
		out.Events = append(out.Events, toEventResponse(&events[i]))
	}
	out.Count = len(out.Events)
	return out
}

type anchorResponse struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Period     string    `json:"period"`
	FromTS     time.Time `json:"from_ts"`
	ToTS       time.Time `json:"to_ts"`
	AnchorSHA  string    `json:"anchor_sha256"`
	HMACSHA256 string    `json:"hmac_sha256"`
	EventCount int       `json:"event_count"`
	ComputedAt time.Time `json:"computed_at"`
}

func toAnchorResponse(a *audit.Anchor) anchorResponse {
	return anchorResponse{
		ID:         a.ID.String(),
		TenantID:   a.TenantID.String(),
		Period:     a.Period,
		FromTS:     a.FromTS,
		ToTS:       a.ToTS,
		AnchorSHA:  a.AnchorSHA,
		HMACSHA256: a.HMACSHA256,
		EventCount: a.EventCount,
		ComputedAt: a.ComputedAt,
	}
}

type anchorCheckResponse struct {
	Anchor anchorResponse `json:"anchor"`
	Valid  bool           `json:"valid"`
	Reason string         `json:"reason,omitempty"`
}

func toAnchorCheckResponse(c *audit.AnchorCheck) anchorCheckResponse {
	return anchorCheckResponse{
		Anchor: toAnchorResponse(c.Anchor),
		Valid:  c.Valid,
		Reason: c.Reason,
	}
}

type erasureResponse struct {
	EventID      string    `json:"event_id"`
	SubjectID    string    `json:"subject_id"`
	RequestedAt  time.Time `json:"requested_at"`
	KeyDestroyed bool      `json:"key_destroyed"`
}

func toErasureResponse(r *audit.ErasureReceipt) erasureResponse {
	return erasureResponse{
		EventID:      r.EventID.String(),
		SubjectID:    r.SubjectID,
		RequestedAt:  r.RequestedAt,
		KeyDestroyed: r.KeyDestroyed,
	}
}
