package sentinel

import "errors"

// Sentinel dependency errors. Dependencies should return these (optionally wrapped)
// so services can translate them into domain errors exactly once.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")

	// ErrTailMoved is returned by stores when a compare-and-append lost the
	// race: the tenant's tail digest no longer matches the digest the caller
	// observed. Callers re-read the tail and retry.
	ErrTailMoved = errors.New("chain tail moved")
)
