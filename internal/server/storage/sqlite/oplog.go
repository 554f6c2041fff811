package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/listsync/internal/models"
)

// AppendOperation records one applied mutation in the operation log.
func (q *queries) AppendOperation(ctx context.Context, entry *models.OperationLogEntry) error {
	query := `
		INSERT INTO operation_log (
			owner_id, device_id, entity_kind, entity_id,
			operation, operation_id, payload, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var operationID sql.NullString
	if entry.OperationID != "" {
		operationID = sql.NullString{String: entry.OperationID, Valid: true}
	}

	_, err := q.db.ExecContext(ctx, query,
		entry.OwnerID,
		entry.DeviceID,
		string(entry.EntityKind),
		entry.EntityID,
		string(entry.Operation),
		operationID,
		entry.Payload,
		toMillis(entry.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to append operation: %w", err)
	}

	return nil
}

// HasOperation reports whether the client-assigned operation id was
// already logged for the account.
func (q *queries) HasOperation(ctx context.Context, ownerID, operationID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM operation_log
			WHERE owner_id = ? AND operation_id = ?
		)
	`

	var exists int
	if err := q.db.QueryRowContext(ctx, query, ownerID, operationID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check operation id: %w", err)
	}

	return exists != 0, nil
}

// HasOperationNatural reports whether an operation matching the natural
// key was already logged for the account.
func (q *queries) HasOperationNatural(ctx context.Context, ownerID, deviceID string,
	kind models.EntityKind, entityID string, op models.Operation, ts time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM operation_log
			WHERE owner_id = ? AND device_id = ? AND entity_kind = ?
			  AND entity_id = ? AND operation = ? AND ts = ?
		)
	`

	var exists int
	err := q.db.QueryRowContext(ctx, query,
		ownerID, deviceID, string(kind), entityID, string(op), toMillis(ts),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check operation natural key: %w", err)
	}

	return exists != 0, nil
}
