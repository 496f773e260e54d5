package audit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ledgerline/internal/audit/canonical"
	"ledgerline/internal/audit/metrics"
	"ledgerline/internal/audit/redact"
	"ledgerline/internal/platform/privacy"
	"ledgerline/pkg/domain"
	dErrors "ledgerline/pkg/domain-errors"
	psync "ledgerline/pkg/platform/sync"
	"ledgerline/pkg/requestcontext"
	"ledgerline/pkg/secrets"
)

// TenantResolver yields the identifier of the caller's tenant.
type TenantResolver interface {
	CurrentTenantID(ctx context.Context) (domain.TenantID, error)
}

// ContextTenantResolver reads the tenant set by the auth middleware.
type ContextTenantResolver struct{}

// CurrentTenantID returns the tenant from context or CodeUnauthorized.
func (ContextTenantResolver) CurrentTenantID(ctx context.Context) (domain.TenantID, error) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return tenantID, nil
}

// KeyManager is the external key-management collaborator used by
// crypto-shredding. Destroying a subject's data-encryption key renders the
// personal data encrypted under it permanently unrecoverable; the audit chain
// itself is never touched.
type KeyManager interface {
	DestroySubjectKey(ctx context.Context, subjectID string) error
}

// maxAppendRetries bounds how often a lost compare-and-append is retried
// before the failure is surfaced.
const maxAppendRetries = 3

// defaultVerifyPageSize is the scan page for verification and anchoring.
const defaultVerifyPageSize = 500

// Service orchestrates tenant resolution, redaction, canonicalization, digest
// computation, persistence and cache upkeep for the compliance log. It is the
// sole writer of events; the anchor path is the sole writer of anchors.
type Service struct {
	store   Store
	tenants TenantResolver
	secrets secrets.Provider
	keys    KeyManager

	cache *chainCache
	locks *psync.ShardedMutex

	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
	pageSize int
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithKeyManager sets the key-management collaborator for erasure requests.
func WithKeyManager(km KeyManager) Option {
	return func(s *Service) { s.keys = km }
}

// WithClock overrides the time source. Tests use this to control TS values
// and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithChainCacheTTL overrides the tail cache TTL.
func WithChainCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cache = newChainCache(ttl) }
}

// WithVerifyPageSize overrides the scan page size for verification and
// anchoring.
func WithVerifyPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithTracer injects a pre-configured tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService constructs the audit service with injected dependencies.
func NewService(store Store, tenants TenantResolver, secretProvider secrets.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		tenants:  tenants,
		secrets:  secretProvider,
		cache:    newChainCache(DefaultChainCacheTTL),
		locks:    psync.NewShardedMutex(),
		now:      time.Now,
		pageSize: defaultVerifyPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("ledgerline/audit")
	}
	return s
}

// Draft is the caller-supplied part of an event. The service fills in tenant,
// timestamp and chain linkage.
type Draft struct {
	Category  Category
	EventType string
	RefType   string
	RefID     string
	Actor     string
	Payload   canonical.Object
	RedactPII bool
}

// Append is the core primitive behind every category operation. Any failure
// is surfaced to the caller: a silently dropped audit entry is an
// unacceptable compliance gap, so this is the one place where "log and
// continue" is forbidden.
func (s *Service) Append(ctx context.Context, draft Draft) (*Event, error) {
	ctx, span := s.tracer.Start(ctx, "audit.append",
		trace.WithAttributes(
			attribute.String("audit.category", string(draft.Category)),
			attribute.String("audit.event_type", draft.EventType),
		))
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	start := s.now()

	tenantID, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		spanErr = err
		return nil, err
	}

	if draft.EventType == "" {
		spanErr = dErrors.New(dErrors.CodeInvalidInput, "event type cannot be empty")
		return nil, spanErr
	}

	actor := draft.Actor
	if actor == "" {
		if actor = requestcontext.Actor(ctx); actor == "" {
			actor = ActorSystem
		}
	}

	payload := draft.Payload
	redacted := false
	if draft.RedactPII && payload != nil {
		if paths := redact.DetectFields(payload); len(paths) > 0 {
			payload = redact.Apply(payload, paths)
			redacted = true
		}
	}

	// Serialize the read-compute-write section per tenant. The store's
	// compare-and-append remains the source of truth; this lock only keeps
	// in-process writers from burning retries against each other.
	s.locks.Lock(tenantID.String())
	defer s.locks.Unlock(tenantID.String())

	prevDigest, err := s.prevDigest(ctx, tenantID)
	if err != nil {
		spanErr = err
		s.countAppendFailure()
		return nil, err
	}

	var stored *Event
	for attempt := 0; ; attempt++ {
		event := &Event{
			TenantID:    tenantID,
			Category:    draft.Category,
			EventType:   draft.EventType,
			RefType:     draft.RefType,
			RefID:       draft.RefID,
			Actor:       actor,
			Payload:     payload,
			PIIRedacted: redacted,
			// Truncate to microseconds so the digest survives round-trips
			// through stores without nanosecond columns.
			TS:         s.now().UTC().Truncate(time.Microsecond),
			PrevDigest: prevDigest,
		}
		event.Digest = event.ComputeDigest()

		stored, err = s.store.Append(ctx, event, prevDigest)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrTailMoved) || attempt+1 >= maxAppendRetries {
			spanErr = dErrors.Wrap(err, dErrors.CodeInternal, "could not persist audit event")
			s.countAppendFailure()
			return nil, spanErr
		}

		// Lost the race against another instance. Re-read the tail and retry.
		if s.metrics != nil {
			s.metrics.AppendConflicts.Inc()
		}
		s.cache.invalidate(tenantID)
		prevDigest, err = s.readTailDigest(ctx, tenantID)
		if err != nil {
			spanErr = err
			s.countAppendFailure()
			return nil, err
		}
	}

	s.cache.put(tenantID, stored.ID, stored.Digest, s.now())

	if s.metrics != nil {
		s.metrics.EventsAppended.Inc()
		s.metrics.AppendDuration.Observe(s.now().Sub(start).Seconds())
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "compliance event chained",
			"log_type", "audit",
			"tenant_id", tenantID.String(),
			"event_id", stored.ID.String(),
			"category", string(stored.Category),
			"event_type", stored.EventType,
			"pii_redacted", stored.PIIRedacted,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return stored, nil
}

// prevDigest obtains the tail digest, preferring a fresh cache entry over a
// store read.
func (s *Service) prevDigest(ctx context.Context, tenantID domain.TenantID) (string, error) {
	if digest, ok := s.cache.get(tenantID, s.now()); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		return digest, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
	return s.readTailDigest(ctx, tenantID)
}

func (s *Service) readTailDigest(ctx context.Context, tenantID domain.TenantID) (string, error) {
	tail, err := s.store.Tail(ctx, tenantID)
	if errors.Is(err, ErrNotFound) {
		return "", nil // genesis: the tenant has no events yet
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not read chain tail")
	}
	return tail.Digest, nil
}

func (s *Service) countAppendFailure() {
	if s.metrics != nil {
		s.metrics.AppendFailures.Inc()
	}
}

// Category operations. Each is a thin builder over Append that fixes the
// category, event type and redaction policy.

// LogDataAccess records that a subject's data was read. The client IP is
// recorded in anonymized form and is not redacted: the category itself
// signals an access record.
func (s *Service) LogDataAccess(ctx context.Context, refType, refID string, details canonical.Object) (*Event, error) {
	payload := details.Clone()
	if payload == nil {
		payload = canonical.Object{}
	}
	payload["client_ip"] = canonical.String(privacy.AnonymizeIP(requestcontext.ClientIP(ctx)))
	if device := requestcontext.Device(ctx); device != "" {
		payload["device"] = canonical.String(device)
	}
	return s.Append(ctx, Draft{
		Category:  CategoryDataAccess,
		EventType: "data_accessed",
		RefType:   refType,
		RefID:     refID,
		Payload:   payload,
	})
}

// LogConfigChange records a configuration change with before/after values.
func (s *Service) LogConfigChange(ctx context.Context, refType, refID string, changes canonical.Object) (*Event, error) {
	return s.Append(ctx, Draft{
		Category:  CategoryConfigChange,
		EventType: "config_changed",
		RefType:   refType,
		RefID:     refID,
		Payload:   changes,
		RedactPII: true,
	})
}

// LogApproval records an approval decision.
func (s *Service) LogApproval(ctx context.Context, refType, refID, decision string, details canonical.Object) (*Event, error) {
	payload := details.Clone()
	if payload == nil {
		payload = canonical.Object{}
	}
	payload["decision"] = canonical.String(decision)
	return s.Append(ctx, Draft{
		Category:  CategoryApproval,
		EventType: "approval_decided",
		RefType:   refType,
		RefID:     refID,
		Payload:   payload,
		RedactPII: true,
	})
}

// LogTransaction records a financial transaction.
func (s *Service) LogTransaction(ctx context.Context, eventType, refID string, details canonical.Object) (*Event, error) {
	return s.Append(ctx, Draft{
		Category:  CategoryTransaction,
		EventType: eventType,
		RefType:   "transaction",
		RefID:     refID,
		Payload:   details,
		RedactPII: true,
	})
}

// LogProviderCall records an outbound call to an external provider. Detected
// PII fields in the parameters are redacted before chaining.
func (s *Service) LogProviderCall(ctx context.Context, provider, operation string, params canonical.Object) (*Event, error) {
	payload := canonical.Object{
		"operation": canonical.String(operation),
		"params":    canonical.Obj(params.Clone()),
	}
	return s.Append(ctx, Draft{
		Category:  CategoryProviderCall,
		EventType: "provider_called",
		RefType:   "provider",
		RefID:     provider,
		Payload:   payload,
		RedactPII: true,
	})
}

// ListEvents returns a tenant's events ascending within the optional range.
func (s *Service) ListEvents(ctx context.Context, tenantID domain.TenantID, from, to time.Time, limit int) ([]Event, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant ID cannot be empty")
	}
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	events, err := s.store.List(ctx, Query{TenantID: tenantID, From: from, To: to, Limit: limit})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list audit events")
	}
	return events, nil
}

// RequestErasure files a GDPR-style crypto-shredding request. The request is
// chained like any other event - its payload holds only the subject
// identifier and timestamp, never the personal data being erased - and the
// external key manager is then signaled to destroy the subject's key. A
// key-manager failure is surfaced, but the logged request stands regardless.
func (s *Service) RequestErasure(ctx context.Context, subjectID string) (*ErasureReceipt, error) {
	if subjectID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject ID cannot be empty")
	}

	event, err := s.Append(ctx, Draft{
		Category:  CategoryErasure,
		EventType: "erasure_request",
		RefType:   "data_subject",
		RefID:     subjectID,
		Payload: canonical.Object{
			"subject_id":   canonical.String(subjectID),
			"requested_at": canonical.String(s.now().UTC().Format(time.RFC3339Nano)),
		},
	})
	if err != nil {
		return nil, err
	}

	receipt := &ErasureReceipt{
		EventID:     event.ID,
		SubjectID:   subjectID,
		RequestedAt: event.TS,
	}

	if s.keys == nil {
		return receipt, dErrors.New(dErrors.CodeUnavailable, "key management backend not configured")
	}
	if err := s.keys.DestroySubjectKey(ctx, subjectID); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "key destruction signal failed",
				"log_type", "audit",
				"subject_id", subjectID,
				"event_id", event.ID.String(),
				"error", err,
			)
		}
		return receipt, dErrors.Wrap(err, dErrors.CodeUnavailable, "key management backend unreachable")
	}

	receipt.KeyDestroyed = true
	return receipt, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// anchorHMAC computes HMAC-SHA256 over the aggregate digest with the
// tenant's anchor key, hex-encoded.
func anchorHMAC(key []byte, anchorSHA string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(anchorSHA))
	return hex.EncodeToString(mac.Sum(nil))
}
