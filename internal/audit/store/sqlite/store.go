// Package sqlite implements the audit store on SQLite for single-node
// deployments. A single file backs all tenant chains, sharing one set of
// transaction and visibility boundaries.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ledgerline/internal/audit"
	"ledgerline/internal/audit/canonical"
	"ledgerline/pkg/domain"
)

//go:embed schema.sql
var schema string

// Store implements audit.Store over SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the store at path and applies the bundled schema. Schema setup
// lives here so callers never coordinate migrations independently.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// The append discipline relies on serialized writes; a single connection
	// sidesteps SQLITE_BUSY churn under concurrent appends.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// toMicros normalizes timestamps for storage.
func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// fromMicros restores microsecond precision and UTC normalization.
func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// Append inserts the event iff the tenant's tail digest still matches
// expectedPrev. The unique index on (tenant_id, prev_digest_sha256) backs the
// check up at the constraint level.
func (s *Store) Append(ctx context.Context, event *audit.Event, expectedPrev string) (*audit.Event, error) {
	query := `
		INSERT INTO compliance_events (
			id, tenant_id, category, event_type, ref_type, ref_id,
			actor, payload, pii_redacted, ts, prev_digest_sha256, digest_sha256
		)
		SELECT ?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11, ?12
		WHERE COALESCE((
			SELECT digest_sha256 FROM compliance_events
			WHERE tenant_id = ?2
			ORDER BY ts DESC, id DESC
			LIMIT 1
		), '') = ?11
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
		stored.ID.String(),
		stored.TenantID.String(),
		string(stored.Category),
		stored.EventType,
		stored.RefType,
		stored.RefID,
		stored.Actor,
		payload,
		stored.PIIRedacted,
		toMicros(stored.TS),
		stored.PrevDigest,
		stored.Digest,
	)
	if err != nil {
		if isUniqueViolation(err) {
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
		WHERE tenant_id = ?1
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
	conditions := []string{"tenant_id = ?"}
	args := []any{q.TenantID.String()}

	if !q.From.IsZero() {
		conditions = append(conditions, "ts >= ?")
		args = append(args, toMicros(q.From))
	}
	if !q.To.IsZero() {
		conditions = append(conditions, "ts < ?")
		args = append(args, toMicros(q.To))
	}
	if !q.AfterTS.IsZero() {
		conditions = append(conditions, "(ts > ? OR (ts = ? AND id > ?))")
		after := toMicros(q.AfterTS)
		args = append(args, after, after, q.AfterID.String())
	}

	query := eventSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY ts ASC, id ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
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
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9)
	`

	stored := *anchor
	if stored.ID.IsNil() {
		stored.ID = domain.NewAnchorID()
	}

	_, err := s.db.ExecContext(ctx, query,
		stored.ID.String(),
		stored.TenantID.String(),
		stored.Period,
		toMicros(stored.FromTS),
		toMicros(stored.ToTS),
		stored.AnchorSHA,
		stored.HMACSHA256,
		stored.EventCount,
		toMicros(stored.ComputedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
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
		WHERE tenant_id = ?1 AND period = ?2
	`

	var (
		a          audit.Anchor
		id, tenant string
		fromTS     int64
		toTS       int64
		computedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, tenantID.String(), period).Scan(
		&id, &tenant, &a.Period, &fromTS, &toTS,
		&a.AnchorSHA, &a.HMACSHA256, &a.EventCount, &computedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, audit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query anchor: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse anchor id: %w", err)
	}
	a.ID = domain.AnchorID(parsed)
	a.TenantID = domain.TenantID(tenant)
	a.FromTS = fromMicros(fromTS)
	a.ToTS = fromMicros(toTS)
	a.ComputedAt = fromMicros(computedAt)
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
		e          audit.Event
		id, tenant string
		category   string
		payload    sql.NullString
		ts         int64
	)
	err := row.Scan(
		&id, &tenant, &category, &e.EventType, &e.RefType, &e.RefID,
		&e.Actor, &payload, &e.PIIRedacted, &ts, &e.PrevDigest, &e.Digest,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse event id: %w", err)
	}
	e.ID = domain.EventID(parsed)
	e.TenantID = domain.TenantID(tenant)
	e.Category = audit.Category(category)
	e.TS = fromMicros(ts)
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

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
