// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "ledgerline/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an EventID where an AnchorID is expected.
type (
	EventID  uuid.UUID
	AnchorID uuid.UUID
)

// TenantID is an opaque partition key. Tenants are minted by the surrounding
// platform, so no UUID shape is assumed here.
type TenantID string

// Parse functions - use at trust boundaries (handlers, CLI inputs).

func ParseEventID(s string) (EventID, error) {
	id, err := parseUUID(s, "event ID")
	return EventID(id), err
}

func ParseAnchorID(s string) (AnchorID, error) {
	id, err := parseUUID(s, "anchor ID")
	return AnchorID(id), err
}

func ParseTenantID(s string) (TenantID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tenant ID cannot be empty")
	}
	return TenantID(s), nil
}

// NewEventID returns a fresh random event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewAnchorID returns a fresh random anchor identifier.
func NewAnchorID() AnchorID { return AnchorID(uuid.New()) }

// String methods - for logging and persistence.

func (id EventID) String() string  { return uuid.UUID(id).String() }
func (id AnchorID) String() string { return uuid.UUID(id).String() }
func (id TenantID) String() string { return string(id) }

// IsNil checks - used for service-layer validation.

func (id EventID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AnchorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TenantID) IsNil() bool { return id == "" }

// parseUUID is the shared validation logic. Nil UUIDs are allowed here; use
// IsNil() at the service layer for business validation so store lookups can
// still return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return id, nil
}
