package storage

import (
	"context"

	"github.com/iudanet/listsync/internal/models"
)

// DeviceStore tracks the devices of an account.
type DeviceStore interface {
	// UpsertDevice inserts the device on first sight and bumps
	// LastSyncAt on every call. An empty DisplayName never overwrites
	// a stored one.
	UpsertDevice(ctx context.Context, device *models.Device) error

	// ListDevices returns all devices of the account, most recently
	// synced first.
	ListDevices(ctx context.Context, ownerID string) ([]*models.Device, error)
}
