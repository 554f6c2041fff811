package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/listsync/internal/models"
)

// UpsertDevice inserts the device on first sight and bumps last_sync_at
// on every call. A device that announces no display name gets a
// placeholder on insert; an empty announced name never overwrites a
// stored one.
func (q *queries) UpsertDevice(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (owner_id, device_id, display_name, last_sync_at, created_at)
		VALUES (?, ?, CASE WHEN ? = '' THEN ? ELSE ? END, ?, ?)
		ON CONFLICT (owner_id, device_id) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			display_name = CASE
				WHEN ? <> '' THEN ?
				ELSE devices.display_name
			END
	`

	name := device.DisplayName
	placeholder := models.PlaceholderDeviceName(device.DeviceID)

	_, err := q.db.ExecContext(ctx, query,
		device.OwnerID,
		device.DeviceID,
		name, placeholder, name,
		toMillis(device.LastSyncAt),
		toMillis(device.CreatedAt),
		name, name,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}

	return nil
}

// ListDevices returns all devices of the account, most recently synced
// first.
func (q *queries) ListDevices(ctx context.Context, ownerID string) ([]*models.Device, error) {
	query := `
		SELECT owner_id, device_id, display_name, last_sync_at, created_at
		FROM devices
		WHERE owner_id = ?
		ORDER BY last_sync_at DESC
	`

	rows, err := q.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var devices []*models.Device

	for rows.Next() {
		device := &models.Device{}
		var lastSyncAt, createdAt int64

		err := rows.Scan(
			&device.OwnerID,
			&device.DeviceID,
			&device.DisplayName,
			&lastSyncAt,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}

		device.LastSyncAt = fromMillis(lastSyncAt)
		device.CreatedAt = fromMillis(createdAt)
		devices = append(devices, device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return devices, nil
}
