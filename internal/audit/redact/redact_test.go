package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerline/internal/audit/canonical"
)

func payload(t *testing.T, raw string) canonical.Object {
	t.Helper()
	obj, err := canonical.ParseObject([]byte(raw))
	require.NoError(t, err)
	return obj
}

func TestDetectFields_TopLevel(t *testing.T) {
	p := payload(t, `{"customer_email":"a@b.com","amount":100}`)

	assert.Equal(t, []Path{{"customer_email"}}, DetectFields(p))
}

func TestDetectFields_NestedAndArrays(t *testing.T) {
	p := payload(t, `{
		"order": {"shipping_address": "1 Main St", "total": 12},
		"contacts": [{"name": "x"}, {"phone": "555"}],
		"meta": {"IP_Address": "1.2.3.4"}
	}`)

	assert.Equal(t, []Path{
		{"contacts", "1", "phone"},
		{"meta", "IP_Address"},
		{"order", "shipping_address"},
	}, DetectFields(p))
}

func TestDetectFields_CaseInsensitiveSubstring(t *testing.T) {
	p := payload(t, `{"BillingEmail":"a@b.com","creditCardLast4":"1111","note":"contains email word in value only"}`)

	got := DetectFields(p)
	assert.Contains(t, got, Path{"BillingEmail"})
	assert.NotContains(t, got, Path{"note"}, "values are never scanned, only key names")
	// "creditCardLast4" lowercases to "creditcardlast4"; marker is "credit_card",
	// so it is intentionally not flagged - the vocabulary is fixed, not fuzzy.
	assert.NotContains(t, got, Path{"creditCardLast4"})
}

func TestDetectFields_SkipsSubtreeUnderMatchedKey(t *testing.T) {
	p := payload(t, `{"customer_address": {"phone": "555", "zip": "00000"}}`)

	assert.Equal(t, []Path{{"customer_address"}}, DetectFields(p),
		"a matched key masks its whole subtree; inner paths are redundant")
}

func TestApply_ReplacesOnlyFlaggedFields(t *testing.T) {
	p := payload(t, `{"customer_email":"a@b.com","amount":100}`)

	got := Apply(p, DetectFields(p))

	assert.Equal(t, Redacted, got["customer_email"].AsString())
	assert.Equal(t, "100", string(got["amount"].AsNumber()))
	// Original untouched.
	assert.Equal(t, "a@b.com", p["customer_email"].AsString())
}

func TestApply_NestedPathAndArrayIndex(t *testing.T) {
	p := payload(t, `{"contacts":[{"name":"x"},{"phone":"555"}],"order":{"shipping_address":"1 Main St"}}`)

	got := Apply(p, []Path{{"contacts", "1", "phone"}, {"order", "shipping_address"}})

	contacts := got["contacts"].AsArray()
	assert.Equal(t, Redacted, contacts[1].AsObject()["phone"].AsString())
	assert.Equal(t, "x", contacts[0].AsObject()["name"].AsString())
	assert.Equal(t, Redacted, got["order"].AsObject()["shipping_address"].AsString())
}

func TestApply_ReplacesNonScalarSubtree(t *testing.T) {
	p := payload(t, `{"customer_address":{"street":"1 Main St","zip":"00000"}}`)

	got := Apply(p, []Path{{"customer_address"}})

	assert.Equal(t, canonical.KindString, got["customer_address"].Kind())
	assert.Equal(t, Redacted, got["customer_address"].AsString())
}

func TestApply_UnresolvablePathsAreSkipped(t *testing.T) {
	p := payload(t, `{"amount":100}`)

	got := Apply(p, []Path{{"missing"}, {"amount", "0"}, {"a", "b", "c"}})

	assert.Equal(t, "100", string(got["amount"].AsNumber()))
	assert.Len(t, got, 1)
}

func TestKeysContainingDotsAreRedacted(t *testing.T) {
	// Flattened-key payloads put "." inside a single key. The key is one path
	// segment, not nesting, and its value must still be masked.
	p := payload(t, `{"contact.email":"a@b.com","amount":100}`)

	paths := DetectFields(p)
	require.Equal(t, []Path{{"contact.email"}}, paths)

	got := Apply(p, paths)
	assert.Equal(t, Redacted, got["contact.email"].AsString())
	assert.Equal(t, "100", string(got["amount"].AsNumber()))
}

func TestKeysContainingDotsAreRedactedAtDepth(t *testing.T) {
	p := payload(t, `{"customer":{"billing.phone":"555"},"entries":[{"user.email":"a@b.com"}]}`)

	paths := DetectFields(p)
	require.Equal(t, []Path{
		{"customer", "billing.phone"},
		{"entries", "0", "user.email"},
	}, paths)

	got := Apply(p, paths)
	assert.Equal(t, Redacted, got["customer"].AsObject()["billing.phone"].AsString())
	assert.Equal(t, Redacted, got["entries"].AsArray()[0].AsObject()["user.email"].AsString())
}

func TestDetectFields_EmptyPayload(t *testing.T) {
	assert.Empty(t, DetectFields(nil))
	assert.Empty(t, DetectFields(canonical.Object{}))
}
