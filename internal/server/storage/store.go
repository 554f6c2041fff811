package storage

import "context"

// DataStore groups everything the sync engine touches. The same
// interface is satisfied by the storage root and by an open
// transaction, so one change can mutate an entity and append its log
// entry atomically.
type DataStore interface {
	SpaceStore
	CategoryStore
	ItemStore
	OperationLogStore
	DeviceStore
	StatsStore
}

// SyncStore is the storage surface handed to the sync engine.
type SyncStore interface {
	DataStore

	// WithinTx runs fn against a transactional DataStore. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(DataStore) error) error
}
