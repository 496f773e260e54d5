package audit

// Exposed to the external audit_test package, which cannot reach the
// package-private constants directly.
const (
	TestMasterSecret = testMasterSecret
	MaxAppendRetries = maxAppendRetries
)
