package audit

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"ledgerline/internal/audit/canonical"
	"ledgerline/internal/audit/mocks"
	"ledgerline/internal/audit/redact"
	"ledgerline/pkg/domain"
	dErrors "ledgerline/pkg/domain-errors"
	"ledgerline/pkg/requestcontext"
)

func (s *ServiceSuite) TestAppendGenesisHasEmptyPrevDigest() {
	ctx := s.tenantCtx("tenant-a")

	event, err := s.service.Append(ctx, Draft{
		Category:  CategoryConfigChange,
		EventType: "settings_updated",
	})

	s.Require().NoError(err)
	s.Empty(event.PrevDigest)
	s.Equal(event.ComputeDigest(), event.Digest)
	s.False(event.ID.IsNil())
	s.Equal(domain.TenantID("tenant-a"), event.TenantID)
}

func (s *ServiceSuite) TestAppendChainsSequentially() {
	ctx := s.tenantCtx("tenant-a")

	events := s.appendN(ctx, 4)

	for i := 1; i < len(events); i++ {
		s.Equal(events[i-1].Digest, events[i].PrevDigest, "event %d must link to its predecessor", i)
	}
	for _, e := range events {
		s.Equal(e.ComputeDigest(), e.Digest)
	}
}

func (s *ServiceSuite) TestAppendIsolatesTenantChains() {
	eventA, err := s.service.Append(s.tenantCtx("tenant-a"), Draft{
		Category:  CategoryApproval,
		EventType: "limit_approved",
	})
	s.Require().NoError(err)
	eventB, err := s.service.Append(s.tenantCtx("tenant-b"), Draft{
		Category:  CategoryApproval,
		EventType: "limit_approved",
	})
	s.Require().NoError(err)

	// Both are genesis events on their own chains.
	s.Empty(eventA.PrevDigest)
	s.Empty(eventB.PrevDigest)
	s.NotEqual(eventA.Digest, eventB.Digest)
}

func (s *ServiceSuite) TestAppendRejectsEmptyEventType() {
	_, err := s.service.Append(s.tenantCtx("tenant-a"), Draft{Category: CategoryTransaction})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestAppendRequiresAuthenticatedTenant() {
	_, err := s.service.Append(context.Background(), Draft{
		Category:  CategoryTransaction,
		EventType: "payment_settled",
	})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestAppendActorPrecedence() {
	ctx := requestcontext.WithActor(s.tenantCtx("tenant-a"), "user-42")

	fromDraft, err := s.service.Append(ctx, Draft{
		Category:  CategoryConfigChange,
		EventType: "settings_updated",
		Actor:     "admin-7",
	})
	s.Require().NoError(err)
	s.Equal("admin-7", fromDraft.Actor)

	fromContext, err := s.service.Append(ctx, Draft{
		Category:  CategoryConfigChange,
		EventType: "settings_updated",
	})
	s.Require().NoError(err)
	s.Equal("user-42", fromContext.Actor)

	fallback, err := s.service.Append(s.tenantCtx("tenant-a"), Draft{
		Category:  CategoryConfigChange,
		EventType: "settings_updated",
	})
	s.Require().NoError(err)
	s.Equal(ActorSystem, fallback.Actor)
}

func (s *ServiceSuite) TestAppendTimestampsAreUTCMicroseconds() {
	event, err := s.service.Append(s.tenantCtx("tenant-a"), Draft{
		Category:  CategoryTransaction,
		EventType: "payment_settled",
	})

	s.Require().NoError(err)
	s.Equal(time.UTC, event.TS.Location())
	s.Equal(event.TS, event.TS.Truncate(time.Microsecond))
}

func (s *ServiceSuite) TestLogProviderCallRedactsPII() {
	event, err := s.service.LogProviderCall(s.tenantCtx("tenant-a"), "sanctions-registry", "screen",
		canonical.Object{
			"email":     canonical.String("ana@example.com"),
			"full_name": canonical.String("Ana Lima"),
			"threshold": canonical.Int(80),
		})

	s.Require().NoError(err)
	s.True(event.PIIRedacted)
	params := event.Payload["params"].AsObject()
	s.Equal(redact.Redacted, params["email"].AsString())
	s.Equal(redact.Redacted, params["full_name"].AsString())
	s.Equal("80", params["threshold"].AsNumber().String())
	s.Equal("sanctions-registry", event.RefID)
}

func (s *ServiceSuite) TestLogProviderCallRedactsDottedKeys() {
	// Flattened-key params carry "." inside single keys. Whenever the event
	// is marked redacted, every detected field must actually be masked.
	event, err := s.service.LogProviderCall(s.tenantCtx("tenant-a"), "crm", "sync",
		canonical.Object{
			"contact.email": canonical.String("ana@example.com"),
			"batch":         canonical.Int(7),
		})

	s.Require().NoError(err)
	s.True(event.PIIRedacted)
	params := event.Payload["params"].AsObject()
	s.Equal(redact.Redacted, params["contact.email"].AsString())
	s.Equal("7", params["batch"].AsNumber().String())
}

func (s *ServiceSuite) TestLogConfigChangeWithoutPIIStaysUnredacted() {
	event, err := s.service.LogConfigChange(s.tenantCtx("tenant-a"), "rate_limit", "global",
		canonical.Object{
			"before": canonical.Int(100),
			"after":  canonical.Int(250),
		})

	s.Require().NoError(err)
	s.False(event.PIIRedacted)
	s.Equal("100", event.Payload["before"].AsNumber().String())
}

func (s *ServiceSuite) TestLogDataAccessAnonymizesClientIP() {
	ctx := requestcontext.WithClientMetadata(s.tenantCtx("tenant-a"), "203.0.113.77", "curl/8.0")
	ctx = requestcontext.WithDevice(ctx, "Chrome on macOS")

	event, err := s.service.LogDataAccess(ctx, "customer", "cust-9", nil)

	s.Require().NoError(err)
	s.Equal(CategoryDataAccess, event.Category)
	s.Equal("203.0.113.0", event.Payload["client_ip"].AsString())
	s.Equal("Chrome on macOS", event.Payload["device"].AsString())
}

func (s *ServiceSuite) TestLogApprovalRecordsDecision() {
	event, err := s.service.LogApproval(s.tenantCtx("tenant-a"), "credit_application", "app-3", "approved", nil)

	s.Require().NoError(err)
	s.Equal("approved", event.Payload["decision"].AsString())
	s.Equal(CategoryApproval, event.Category)
}

func (s *ServiceSuite) TestListEventsHonorsRange() {
	ctx := s.tenantCtx("tenant-a")
	events := s.appendN(ctx, 3)

	listed, err := s.service.ListEvents(ctx, "tenant-a", events[1].TS, time.Time{}, 0)

	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(events[1].ID, listed[0].ID)
	s.Equal(events[2].ID, listed[1].ID)
}

func (s *ServiceSuite) TestListEventsRejectsEmptyTenant() {
	_, err := s.service.ListEvents(context.Background(), "", time.Time{}, time.Time{}, 0)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestRequestErasureChainsBeforeKeyDestruction() {
	km := mocks.NewMockKeyManager(s.ctrl)
	s.service.keys = km
	ctx := s.tenantCtx("tenant-a")

	km.EXPECT().DestroySubjectKey(gomock.Any(), "subject-1").Return(nil)

	receipt, err := s.service.RequestErasure(ctx, "subject-1")

	s.Require().NoError(err)
	s.True(receipt.KeyDestroyed)
	s.Equal("subject-1", receipt.SubjectID)

	tail, err := s.store.Tail(ctx, "tenant-a")
	s.Require().NoError(err)
	s.Equal(CategoryErasure, tail.Category)
	s.Equal("erasure_request", tail.EventType)
	s.Equal("subject-1", tail.Payload["subject_id"].AsString())
}

func (s *ServiceSuite) TestRequestErasureSurfacesKeyManagerFailure() {
	km := mocks.NewMockKeyManager(s.ctrl)
	s.service.keys = km
	ctx := s.tenantCtx("tenant-a")

	km.EXPECT().DestroySubjectKey(gomock.Any(), "subject-1").
		Return(dErrors.New(dErrors.CodeUnavailable, "kms down"))

	receipt, err := s.service.RequestErasure(ctx, "subject-1")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	// The logged request stands even though the key signal failed.
	s.Require().NotNil(receipt)
	s.False(receipt.KeyDestroyed)
	tail, err := s.store.Tail(ctx, "tenant-a")
	s.Require().NoError(err)
	s.Equal(receipt.EventID, tail.ID)
}

func (s *ServiceSuite) TestRequestErasureWithoutKeyManager() {
	receipt, err := s.service.RequestErasure(s.tenantCtx("tenant-a"), "subject-1")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Require().NotNil(receipt)
	s.False(receipt.KeyDestroyed)
}

func (s *ServiceSuite) TestRequestErasureRejectsEmptySubject() {
	_, err := s.service.RequestErasure(s.tenantCtx("tenant-a"), "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
