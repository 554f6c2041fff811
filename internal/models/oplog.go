package models

import "time"

// OperationLogEntry is one row of the append-only operation log. The
// log records every applied mutation and backs duplicate detection:
// either by the client-assigned OperationID or, absent that, by the
// natural key (DeviceID, EntityID, Operation, Timestamp). Entries are
// never mutated after insert.
type OperationLogEntry struct {
	Timestamp   time.Time
	OwnerID     string
	DeviceID    string
	EntityKind  EntityKind
	EntityID    string
	Operation   Operation
	OperationID string // empty when the client did not assign one
	Payload     []byte // raw change payload snapshot
}
