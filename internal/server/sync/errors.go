// Package sync implements the delta synchronization engine: it accepts
// a batch of client-originated changes, applies them idempotently with
// last-write-wins conflict resolution, and computes the incremental
// server-side delta the client must merge back.
package sync

import "errors"

// Engine errors. The first group is per-change: the offending change
// fails, siblings in the batch continue. The rest abort the whole
// request.
var (
	// ErrInvalidChange indicates a malformed change (missing id,
	// unknown operation, undecodable payload).
	ErrInvalidChange = errors.New("invalid change")

	// ErrUnknownEntityKind indicates an entity kind no store maps to.
	ErrUnknownEntityKind = errors.New("unknown entity kind")

	// ErrNotFound indicates an update target that does not exist for
	// the account. Deleting an absent entity is not an error.
	ErrNotFound = errors.New("entity not found")

	// ErrMissingDevice indicates a sync request without a device
	// identity. Whole-request failure.
	ErrMissingDevice = errors.New("device id is required")
)

// IsChangeError reports whether err is contained to a single change.
// Anything else during change application is a storage fault and
// aborts the request.
func IsChangeError(err error) bool {
	return errors.Is(err, ErrInvalidChange) ||
		errors.Is(err, ErrUnknownEntityKind) ||
		errors.Is(err, ErrNotFound)
}
