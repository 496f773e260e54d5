// Package postgres implements the audit store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"ledgerline/internal/audit"
	"ledgerline/internal/audit/canonical"
	"ledgerline/pkg/domain"
)

// Store implements audit.Store using PostgreSQL. The compare-and-append is
// enforced twice: the insert only matches when the tenant's tail digest still
// equals the expected value, and a unique index on (tenant_id,
// prev_digest_sha256) rejects a second successor for the same link even if
// two instances race past the first check.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

// Append inserts the event iff the tenant's tail digest still matches
// expectedPrev.
func (s *Store) Append(ctx context.Context, event *audit.Event, expectedPrev string) (*audit.Event, error) {
	query := `
		INSERT INTO compliance_events (
			id, tenant_id, category, event_type, ref_type, ref_id,
			actor, payload, pii_redacted, ts, prev_digest_sha256, digest_sha256
		)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		WHERE COALESCE((
			SELECT digest_sha256 FROM compliance_events
			WHERE tenant_id = $2
			ORDER BY ts DESC, id DESC
			LIMIT 1
		), '') = $11
	`

	stored := *event
	if stored.ID.IsNil() {
		stored.ID = domain.NewEventID()
	}

	payload, err := payloadParam(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(stored.ID),
		stored.TenantID.String(),
		string(stored.Category),
		stored.EventType,
		stored.RefType,
		stored.RefID,
		stored.Actor,
		payload,
		stored.PIIRedacted,
		stored.TS,
		stored.PrevDigest,
		stored.Digest,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("append %s: %w", stored.TenantID, audit.ErrTailMoved)
		}
		return nil, fmt.Errorf("insert compliance event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("append %s: %w", stored.TenantID, audit.ErrTailMoved)
	}

	return &stored, nil
}

// Tail returns the most recent event for a tenant.
func (s *Store) Tail(ctx context.Context, tenantID domain.TenantID) (*audit.Event, error) {
	query := eventSelect + `
		WHERE tenant_id = $1
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, tenantID.String())
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, audit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query chain tail: %w", err)
	}
	return event, nil
}

// List returns matching events ordered ascending by (ts, id).
func (s *Store) List(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{q.TenantID.String()}

	if !q.From.IsZero() {
		args = append(args, q.From)
		conditions = append(conditions, "ts >= $"+strconv.Itoa(len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		conditions = append(conditions, "ts < $"+strconv.Itoa(len(args)))
	}
	if !q.AfterTS.IsZero() {
		args = append(args, q.AfterTS, uuid.UUID(q.AfterID))
		n := len(args)
		conditions = append(conditions,
			fmt.Sprintf("(ts, id) > ($%d, $%d)", n-1, n))
	}

	query := eventSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY ts ASC, id ASC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compliance events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan compliance event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance events: %w", err)
	}
	return events, nil
}

// CreateAnchor persists an anchor, once per tenant+period.
func (s *Store) CreateAnchor(ctx context.Context, anchor *audit.Anchor) (*audit.Anchor, error) {
	query := `
		INSERT INTO compliance_anchors (
			id, tenant_id, period, from_ts, to_ts,
			anchor_sha256, hmac_sha256, event_count, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	stored := *anchor
	if stored.ID.IsNil() {
		stored.ID = domain.NewAnchorID()
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(stored.ID),
		stored.TenantID.String(),
		stored.Period,
		stored.FromTS,
		stored.ToTS,
		stored.AnchorSHA,
		stored.HMACSHA256,
		stored.EventCount,
		stored.ComputedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("anchor %s/%s: %w", stored.TenantID, stored.Period, audit.ErrPeriodAnchored)
		}
		return nil, fmt.Errorf("insert anchor: %w", err)
	}
	return &stored, nil
}

// FindAnchor returns the anchor for a tenant+period.
func (s *Store) FindAnchor(ctx context.Context, tenantID domain.TenantID, period string) (*audit.Anchor, error) {
	query := `
		SELECT id, tenant_id, period, from_ts, to_ts,
		       anchor_sha256, hmac_sha256, event_count, computed_at
		FROM compliance_anchors
		WHERE tenant_id = $1 AND period = $2
	`

	var (
		a  audit.Anchor
		id uuid.UUID
		t  string
	)
	err := s.db.QueryRowContext(ctx, query, tenantID.String(), period).Scan(
		&id, &t, &a.Period, &a.FromTS, &a.ToTS,
		&a.AnchorSHA, &a.HMACSHA256, &a.EventCount, &a.ComputedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, audit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query anchor: %w", err)
	}
	a.ID = domain.AnchorID(id)
	a.TenantID = domain.TenantID(t)
	return &a, nil
}

// TenantIDs lists every tenant with at least one event.
func (s *Store) TenantIDs(ctx context.Context) ([]domain.TenantID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT tenant_id FROM compliance_events ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var out []domain.TenantID
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, domain.TenantID(t))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return out, nil
}

const eventSelect = `
	SELECT id, tenant_id, category, event_type, ref_type, ref_id,
	       actor, payload, pii_redacted, ts, prev_digest_sha256, digest_sha256
	FROM compliance_events
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*audit.Event, error) {
	var (
		e        audit.Event
		id       uuid.UUID
		tenant   string
		category string
		payload  sql.NullString
	)
	err := row.Scan(
		&id, &tenant, &category, &e.EventType, &e.RefType, &e.RefID,
		&e.Actor, &payload, &e.PIIRedacted, &e.TS, &e.PrevDigest, &e.Digest,
	)
	if err != nil {
		return nil, err
	}
	e.ID = domain.EventID(id)
	e.TenantID = domain.TenantID(tenant)
	e.Category = audit.Category(category)
	e.TS = e.TS.UTC()
	if payload.Valid {
		obj, err := canonical.ParseObject([]byte(payload.String))
		if err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		e.Payload = obj
	}
	return &e, nil
}

func payloadParam(payload canonical.Object) (any, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := payload.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
