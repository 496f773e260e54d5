package audit

import (
	"time"

	"ledgerline/internal/audit/canonical"
)

func (s *ServiceSuite) TestVerifyChainOnIntactChain() {
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 5)

	result, err := s.service.VerifyChain(ctx, "tenant-a", time.Time{}, time.Time{})

	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal(5, result.EventCount)
	s.Empty(result.Violations)
}

func (s *ServiceSuite) TestVerifyChainOnEmptyChain() {
	result, err := s.service.VerifyChain(s.tenantCtx("tenant-a"), "tenant-a", time.Time{}, time.Time{})

	s.Require().NoError(err)
	s.True(result.Valid)
	s.Zero(result.EventCount)
}

func (s *ServiceSuite) TestVerifyChainPaginates() {
	WithVerifyPageSize(2)(s.service)
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 7)

	result, err := s.service.VerifyChain(ctx, "tenant-a", time.Time{}, time.Time{})

	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal(7, result.EventCount)
}

func (s *ServiceSuite) TestVerifyChainWithTimeRange() {
	ctx := s.tenantCtx("tenant-a")
	events := s.appendN(ctx, 5)

	// A range starting mid-chain cannot see the predecessor of its first
	// event, so that event surfaces one leading continuity warning. The rest
	// of the window verifies cleanly, and the upper bound is exclusive.
	result, err := s.service.VerifyChain(ctx, "tenant-a", events[2].TS, events[4].TS)

	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal(2, result.EventCount)
	s.Require().Len(result.Violations, 1)
	v := result.Violations[0]
	s.Equal(ViolationPrevDigestMismatch, v.Type)
	s.Equal(SeverityWarning, v.Severity)
	s.Equal(events[2].ID, v.EventID)
	s.Equal("", v.Expected)
	s.Equal(events[1].Digest, v.Got)
}

func (s *ServiceSuite) TestVerifyChainRangeFromGenesisIsValid() {
	ctx := s.tenantCtx("tenant-a")
	events := s.appendN(ctx, 4)

	// Genesis has an empty prev digest, which matches the walk's starting
	// expectation, so a range anchored at the first event has no findings.
	result, err := s.service.VerifyChain(ctx, "tenant-a", events[0].TS, events[3].TS)

	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal(3, result.EventCount)
	s.Empty(result.Violations)
}

func (s *ServiceSuite) TestVerifyChainDetectsEditedContent() {
	ctx := s.tenantCtx("tenant-a")
	events := s.appendN(ctx, 4)

	// Edit the payload of the second event without touching its digest. The
	// chain links still hold, so this is exactly one integrity finding.
	s.Require().True(s.store.Tamper("tenant-a", 1, func(e *Event) {
		e.Payload = canonical.Object{"amount": canonical.Int(999999)}
	}))

	result, err := s.service.VerifyChain(ctx, "tenant-a", time.Time{}, time.Time{})

	s.Require().NoError(err)
	s.False(result.Valid)
	s.Require().Len(result.Violations, 1)
	v := result.Violations[0]
	s.Equal(ViolationDigestMismatch, v.Type)
	s.Equal(SeverityCritical, v.Severity)
	s.Equal(events[1].ID, v.EventID)
}

func (s *ServiceSuite) TestVerifyChainDetectsRecomputedForgery() {
	ctx := s.tenantCtx("tenant-a")
	events := s.appendN(ctx, 4)

	// A smarter attacker edits the event AND recomputes its digest. The event
	// now verifies on its own, but its successor pinned the original digest
	// at write time, so the break surfaces as a continuity finding there.
	s.Require().True(s.store.Tamper("tenant-a", 1, func(e *Event) {
		e.Payload = canonical.Object{"amount": canonical.Int(999999)}
		e.Digest = e.ComputeDigest()
	}))

	result, err := s.service.VerifyChain(ctx, "tenant-a", time.Time{}, time.Time{})

	s.Require().NoError(err)
	s.False(result.Valid)
	s.Require().Len(result.Violations, 1)
	v := result.Violations[0]
	s.Equal(ViolationPrevDigestMismatch, v.Type)
	s.Equal(SeverityWarning, v.Severity)
	s.Equal(events[2].ID, v.EventID)
	s.Equal(events[1].Digest, v.Got, "the successor still carries the original digest")
}

func (s *ServiceSuite) TestVerifyChainReportsAllFindings() {
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 6)

	s.Require().True(s.store.Tamper("tenant-a", 1, func(e *Event) {
		e.Payload = canonical.Object{"edited": canonical.Bool(true)}
	}))
	s.Require().True(s.store.Tamper("tenant-a", 4, func(e *Event) {
		e.Actor = "impostor"
	}))

	result, err := s.service.VerifyChain(ctx, "tenant-a", time.Time{}, time.Time{})

	// Scanning never stops at the first finding.
	s.Require().NoError(err)
	s.Len(result.Violations, 2)
	s.Equal(6, result.EventCount)
}

func (s *ServiceSuite) TestVerifyChainRejectsEmptyTenant() {
	_, err := s.service.VerifyChain(s.tenantCtx("tenant-a"), "", time.Time{}, time.Time{})

	s.Require().Error(err)
}
