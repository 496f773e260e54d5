package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	dErrors "ledgerline/pkg/domain-errors"
	"ledgerline/pkg/secrets"
)

const testPeriod = "2025-06-15" // the suite clock's UTC day

func foldDigests(events []*Event) string {
	acc := []byte{}
	for _, e := range events {
		h := sha256.New()
		h.Write(acc)
		h.Write([]byte(e.Digest))
		acc = h.Sum(nil)
	}
	return hex.EncodeToString(acc)
}

func (s *ServiceSuite) TestCreateAnchorOverDay() {
	ctx := s.tenantCtx("tenant-a")
	events := s.appendN(ctx, 3)

	anchor, err := s.service.CreateAnchor(ctx, "tenant-a", testPeriod)

	s.Require().NoError(err)
	s.Require().NotNil(anchor)
	s.Equal(3, anchor.EventCount)
	s.Equal(foldDigests(events), anchor.AnchorSHA)
	s.Equal(events[0].TS, anchor.FromTS)
	s.Equal(events[2].TS, anchor.ToTS)
	s.NotEmpty(anchor.HMACSHA256)
	s.False(anchor.ID.IsNil())
}

func (s *ServiceSuite) TestCreateAnchorIsIdempotent() {
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 2)

	first, err := s.service.CreateAnchor(ctx, "tenant-a", testPeriod)
	s.Require().NoError(err)
	// More events arrive after anchoring; the anchor must not move.
	s.appendN(ctx, 2)
	second, err := s.service.CreateAnchor(ctx, "tenant-a", testPeriod)
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(first.AnchorSHA, second.AnchorSHA)
	s.Equal(2, second.EventCount)
}

func (s *ServiceSuite) TestCreateAnchorEmptyPeriodIsNoOp() {
	anchor, err := s.service.CreateAnchor(s.tenantCtx("tenant-a"), "tenant-a", testPeriod)

	s.Require().NoError(err)
	s.Nil(anchor)
}

func (s *ServiceSuite) TestCreateAnchorRejectsMalformedPeriod() {
	_, err := s.service.CreateAnchor(s.tenantCtx("tenant-a"), "tenant-a", "June 15th")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestCreateAnchorScopesEventsToPeriod() {
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 2)
	// Jump the clock past midnight; the next events belong to the next day.
	s.clockNow = s.clockNow.Add(24 * time.Hour)
	s.appendN(ctx, 3)

	anchor, err := s.service.CreateAnchor(ctx, "tenant-a", testPeriod)

	s.Require().NoError(err)
	s.Require().NotNil(anchor)
	s.Equal(2, anchor.EventCount)
}

func (s *ServiceSuite) TestVerifyAnchorOnIntactChain() {
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 3)
	_, err := s.service.CreateAnchor(ctx, "tenant-a", testPeriod)
	s.Require().NoError(err)

	check, err := s.service.VerifyAnchor(ctx, "tenant-a", testPeriod)

	s.Require().NoError(err)
	s.True(check.Valid)
	s.Empty(check.Reason)
}

func (s *ServiceSuite) TestVerifyAnchorDetectsRewrittenDigest() {
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 3)
	_, err := s.service.CreateAnchor(ctx, "tenant-a", testPeriod)
	s.Require().NoError(err)

	// Edit and recompute so the event is self-consistent, but its digest is
	// no longer the one that was anchored.
	s.Require().True(s.store.Tamper("tenant-a", 1, func(e *Event) {
		e.Actor = "impostor"
		e.Digest = e.ComputeDigest()
	}))

	check, err := s.service.VerifyAnchor(ctx, "tenant-a", testPeriod)

	s.Require().NoError(err)
	s.False(check.Valid)
	s.Equal("aggregate digest mismatch", check.Reason)
}

func (s *ServiceSuite) TestVerifyAnchorDetectsForeignKey() {
	ctx := s.tenantCtx("tenant-a")
	s.appendN(ctx, 2)
	_, err := s.service.CreateAnchor(ctx, "tenant-a", testPeriod)
	s.Require().NoError(err)

	// Rotate to a different master secret: the stored HMAC can no longer be
	// reproduced, which is indistinguishable from a forged anchor.
	other, err := secrets.NewHKDFProvider([]byte("rotated-master-secret-fedcba98765"))
	s.Require().NoError(err)
	s.service.secrets = other

	check, err := s.service.VerifyAnchor(ctx, "tenant-a", testPeriod)

	s.Require().NoError(err)
	s.False(check.Valid)
	s.Equal("hmac mismatch", check.Reason)
}

func (s *ServiceSuite) TestVerifyAnchorMissingPeriod() {
	_, err := s.service.VerifyAnchor(s.tenantCtx("tenant-a"), "tenant-a", testPeriod)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
