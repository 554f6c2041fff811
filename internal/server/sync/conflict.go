package sync

import "time"

// IncomingWins is the last-write-wins policy: the incoming change is
// applied iff its logical timestamp is not older than the stored
// version's updatedAt. Equal timestamps favor the incoming change, so
// the most recently processed write of a tie wins. Resolution is
// whole-entity; no field-level merge is attempted.
func IncomingWins(incoming, stored time.Time) bool {
	return !incoming.Before(stored)
}
