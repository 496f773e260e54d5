// Package handler exposes the compliance log over HTTP. It is a thin
// translation layer: tenancy comes from the auth middleware, semantics live
// in the audit service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ledgerline/internal/audit"
	"ledgerline/pkg/domain"
	dErrors "ledgerline/pkg/domain-errors"
	"ledgerline/pkg/platform/httputil"
	"ledgerline/pkg/requestcontext"
)

// Service defines the audit operations the HTTP layer depends on.
type Service interface {
	Append(ctx context.Context, draft audit.Draft) (*audit.Event, error)
	ListEvents(ctx context.Context, tenantID domain.TenantID, from, to time.Time, limit int) ([]audit.Event, error)
	VerifyChain(ctx context.Context, tenantID domain.TenantID, from, to time.Time) (*audit.VerifyResult, error)
	CreateAnchor(ctx context.Context, tenantID domain.TenantID, period string) (*audit.Anchor, error)
	VerifyAnchor(ctx context.Context, tenantID domain.TenantID, period string) (*audit.AnchorCheck, error)
	RequestErasure(ctx context.Context, subjectID string) (*audit.ErasureReceipt, error)
}

// Handler handles audit endpoints.
type Handler struct {
	audit  Service
	logger *slog.Logger
}

// New creates a new audit Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		audit:  service,
		logger: logger,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.handleAppendEvent)
	r.Get("/events", h.handleListEvents)
	r.Get("/chain/verify", h.handleVerifyChain)
	r.Post("/anchors", h.handleCreateAnchor)
	r.Get("/anchors/{period}", h.handleVerifyAnchor)
	r.Post("/erasure-requests", h.handleRequestErasure)
}

func (h *Handler) handleAppendEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndValidate[appendEventRequest](w, r, h.logger)
	if !ok {
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	event, err := h.audit.Append(ctx, draft)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to append audit event",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseTimeRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.audit.ListEvents(ctx, requestcontext.TenantID(ctx), from, to, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toEventListResponse(events))
}

func (h *Handler) handleVerifyChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseTimeRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.audit.VerifyChain(ctx, requestcontext.TenantID(ctx), from, to)
	if err != nil {
		h.logger.ErrorContext(ctx, "chain verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateAnchor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndValidate[createAnchorRequest](w, r, h.logger)
	if !ok {
		return
	}

	anchor, err := h.audit.CreateAnchor(ctx, requestcontext.TenantID(ctx), req.Period)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create anchor",
			"request_id", requestcontext.RequestID(ctx),
			"period", req.Period,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if anchor == nil {
		// Nothing to anchor in the period.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toAnchorResponse(anchor))
}

func (h *Handler) handleVerifyAnchor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period := chi.URLParam(r, "period")

	check, err := h.audit.VerifyAnchor(ctx, requestcontext.TenantID(ctx), period)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "anchor verification failed",
				"request_id", requestcontext.RequestID(ctx),
				"period", period,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toAnchorCheckResponse(check))
}

func (h *Handler) handleRequestErasure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndValidate[erasureRequest](w, r, h.logger)
	if !ok {
		return
	}

	receipt, err := h.audit.RequestErasure(ctx, req.SubjectID)
	if err != nil {
		if receipt == nil {
			httputil.WriteError(w, err)
			return
		}
		// The request is chained; only the key-destruction signal failed.
		// Report the receipt so the caller can retry destruction, not the log.
		h.logger.WarnContext(ctx, "erasure recorded but key destruction pending",
			"request_id", requestcontext.RequestID(ctx),
			"subject_id", req.SubjectID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusAccepted, toErasureResponse(receipt))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toErasureResponse(receipt))
}
