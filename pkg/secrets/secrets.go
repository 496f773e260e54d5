// Package secrets supplies the keys used for anchor signing.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/hkdf"

	"ledgerline/pkg/domain"
	dErrors "ledgerline/pkg/domain-errors"
)

// Provider yields the HMAC key for a tenant's anchors.
type Provider interface {
	AnchorSecret(tenantID domain.TenantID) ([]byte, error)
}

// HKDFProvider derives per-tenant anchor keys from a single master secret
// using HKDF-SHA256. Deriving instead of sharing one key keeps a leaked
// tenant key from forging any other tenant's anchors.
type HKDFProvider struct {
	master []byte
}

// NewHKDFProvider creates a provider from the master secret.
func NewHKDFProvider(master []byte) (*HKDFProvider, error) {
	if len(master) < 16 {
		return nil, dErrors.New(dErrors.CodeValidation, "anchor master secret must be at least 16 bytes")
	}
	return &HKDFProvider{master: master}, nil
}

// AnchorSecret returns the 32-byte anchor key for the tenant.
func (p *HKDFProvider) AnchorSecret(tenantID domain.TenantID) ([]byte, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant ID cannot be empty")
	}
	r := hkdf.New(sha256.New, p.master, nil, []byte("anchor:"+tenantID.String()))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not derive anchor key")
	}
	return key, nil
}

// Generate creates a cryptographically secure random secret.
// Returns a base64-encoded string suitable for bootstrapping a master secret.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
