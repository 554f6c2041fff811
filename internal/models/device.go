package models

import "time"

// Device is one registered device of an account. A row is inserted on
// the first sync from an unseen device and its LastSyncAt is bumped on
// every sync. Devices are never deleted by the sync path.
type Device struct {
	LastSyncAt  time.Time
	CreatedAt   time.Time
	DeviceID    string
	OwnerID     string
	DisplayName string
}

// PlaceholderDeviceName derives the display name used when a device
// first syncs without announcing one.
func PlaceholderDeviceName(deviceID string) string {
	const prefixLen = 8
	if len(deviceID) > prefixLen {
		deviceID = deviceID[:prefixLen]
	}
	return "device-" + deviceID
}
