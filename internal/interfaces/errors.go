package interfaces

import "errors"

// Sentinel errors shared across the service boundaries.
var (
	// ErrAnswerUnavailable means the retrieval backend could not be reached
	// or returned a non-success status.
	ErrAnswerUnavailable = errors.New("answer backend unavailable")

	// ErrAnswerTimeout means the backend did not reply within the deadline.
	ErrAnswerTimeout = errors.New("answer backend timed out")

	// ErrSessionNotFound means the requested session is in neither the local
	// cache nor the remote store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSyncUnavailable means the remote store rejected or could not serve
	// a sync operation. Local state stays authoritative until the next push.
	ErrSyncUnavailable = errors.New("remote sync unavailable")

	// ErrIdentityMapping means a local ID could not be resolved or persisted
	// in the identity map.
	ErrIdentityMapping = errors.New("identity mapping failed")
)
