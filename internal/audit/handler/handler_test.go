package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ledgerline/internal/audit"
	"ledgerline/internal/audit/handler/mocks"
	"ledgerline/pkg/domain"
	dErrors "ledgerline/pkg/domain-errors"
	"ledgerline/pkg/requestcontext"
)

func newTestHandler(t *testing.T) (*mocks.MockService, http.Handler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	// Stand-in for the auth middleware: every request runs as tenant-a.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithTenantID(req.Context(), "tenant-a")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(service, logger).Register(r)
	return service, r
}

func TestHandleAppendEvent(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, draft audit.Draft) (*audit.Event, error) {
			require.Equal(t, audit.CategoryTransaction, draft.Category)
			require.Equal(t, "payment_settled", draft.EventType)
			require.Equal(t, "150.00", draft.Payload["amount"].AsNumber().String())
			return &audit.Event{
				ID:        domain.NewEventID(),
				TenantID:  "tenant-a",
				Category:  draft.Category,
				EventType: draft.EventType,
				Actor:     "system",
				Payload:   draft.Payload,
				TS:        time.Now().UTC(),
				Digest:    "abc",
			}, nil
		})

	body := `{"category":"transaction","event_type":"payment_settled","payload":{"amount":150.00}}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"digest_sha256":"abc"`)
}

func TestHandleAppendEventRejectsUnknownCategory(t *testing.T) {
	_, router := newTestHandler(t)

	body := `{"category":"gossip","event_type":"whisper"}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown category")
}

func TestHandleAppendEventRejectsNonObjectPayload(t *testing.T) {
	_, router := newTestHandler(t)

	body := `{"category":"transaction","event_type":"payment_settled","payload":[1,2]}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListEvents(t *testing.T) {
	service, router := newTestHandler(t)

	from := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	service.EXPECT().
		ListEvents(gomock.Any(), domain.TenantID("tenant-a"), from, time.Time{}, 10).
		Return([]audit.Event{{ID: domain.NewEventID(), TenantID: "tenant-a"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/events?from=2025-06-15T00:00:00Z&limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"count":1`)
}

func TestHandleListEventsRejectsBadRange(t *testing.T) {
	_, router := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/events?from=yesterday", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVerifyChain(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		VerifyChain(gomock.Any(), domain.TenantID("tenant-a"), time.Time{}, time.Time{}).
		Return(&audit.VerifyResult{TenantID: "tenant-a", Valid: false, EventCount: 3, Violations: []audit.Violation{
			{Type: audit.ViolationDigestMismatch, Severity: audit.SeverityCritical},
		}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chain/verify", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"valid":false`)
	require.Contains(t, rec.Body.String(), "digest_mismatch")
}

func TestHandleCreateAnchor(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		CreateAnchor(gomock.Any(), domain.TenantID("tenant-a"), "2025-06-15").
		Return(&audit.Anchor{ID: domain.NewAnchorID(), TenantID: "tenant-a", Period: "2025-06-15", EventCount: 7}, nil)

	req := httptest.NewRequest(http.MethodPost, "/anchors", strings.NewReader(`{"period":"2025-06-15"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"event_count":7`)
}

func TestHandleCreateAnchorEmptyPeriod(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		CreateAnchor(gomock.Any(), domain.TenantID("tenant-a"), "2025-06-15").
		Return(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/anchors", strings.NewReader(`{"period":"2025-06-15"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleVerifyAnchor(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		VerifyAnchor(gomock.Any(), domain.TenantID("tenant-a"), "2025-06-15").
		Return(&audit.AnchorCheck{Anchor: &audit.Anchor{TenantID: "tenant-a", Period: "2025-06-15"}, Valid: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/anchors/2025-06-15", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"valid":true`)
}

func TestHandleVerifyAnchorNotFound(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		VerifyAnchor(gomock.Any(), domain.TenantID("tenant-a"), "2025-06-15").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "no anchor for period"))

	req := httptest.NewRequest(http.MethodGet, "/anchors/2025-06-15", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRequestErasure(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		RequestErasure(gomock.Any(), "subject-1").
		Return(&audit.ErasureReceipt{EventID: domain.NewEventID(), SubjectID: "subject-1", KeyDestroyed: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/erasure-requests", strings.NewReader(`{"subject_id":"subject-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"key_destroyed":true`)
}

func TestHandleRequestErasureKeySignalPending(t *testing.T) {
	service, router := newTestHandler(t)

	service.EXPECT().
		RequestErasure(gomock.Any(), "subject-1").
		Return(&audit.ErasureReceipt{EventID: domain.NewEventID(), SubjectID: "subject-1"},
			dErrors.New(dErrors.CodeUnavailable, "key management backend unreachable"))

	req := httptest.NewRequest(http.MethodPost, "/erasure-requests", strings.NewReader(`{"subject_id":"subject-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Recorded but not destroyed: the caller retries destruction, not logging.
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), `"key_destroyed":false`)
}
