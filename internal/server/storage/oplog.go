package storage

import (
	"context"
	"time"

	"github.com/iudanet/listsync/internal/models"
)

// OperationLogStore persists the append-only operation log. Rows are
// written once and never mutated.
type OperationLogStore interface {
	// AppendOperation records one applied mutation.
	AppendOperation(ctx context.Context, entry *models.OperationLogEntry) error

	// HasOperation reports whether a client-assigned operation id was
	// already logged for the account.
	HasOperation(ctx context.Context, ownerID, operationID string) (bool, error)

	// HasOperationNatural reports whether an operation matching the
	// natural key (device, entity, operation, timestamp) was already
	// logged for the account. Used when the client assigned no
	// operation id.
	HasOperationNatural(ctx context.Context, ownerID, deviceID string,
		kind models.EntityKind, entityID string, op models.Operation, ts time.Time) (bool, error)
}
