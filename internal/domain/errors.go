package domain

import "errors"

// Sentinel errors for the engine's failure taxonomy. Handlers map these
// to HTTP status codes at the API boundary.
var (
	// ErrModelUnavailable means the embedding capability cannot be
	// reached; suggest serving is down, health reports unhealthy.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrDimensionMismatch rejects an insertion or query whose vector
	// length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexNotLoaded is the soft no-index condition; suggestion
	// responses degrade to zero candidates instead of failing.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrMalformedRequest means a required field is missing or a
	// parameter is out of range; the request is not processed.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrInternalSearch wraps unexpected retrieval/ranking failures.
	ErrInternalSearch = errors.New("internal search error")
)
