package api

import (
	"encoding/json"
	"time"
)

// Change is one client-submitted mutation intent for one entity.
// ID is the client-minted entity identifier. Data carries the
// kind-specific payload and is decoded server-side into a typed patch.
type Change struct {
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
	ID          string          `json:"id"`
	EntityKind  string          `json:"entityKind"`
	Operation   string          `json:"operation"`
	OperationID string          `json:"operationId,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// SyncRequest is the body of POST /api/v1/sync.
// LastSyncTimestamp is the syncTimestamp returned by the previous call;
// when absent the server sends everything.
type SyncRequest struct {
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp,omitempty"`
	DeviceID          string     `json:"deviceId"`
	DeviceName        string     `json:"deviceName,omitempty"`
	Changes           []Change   `json:"changes"`
}

// ChangeAck reports the outcome of one submitted change.
// Conflict and Duplicate are informational, not failures.
type ChangeAck struct {
	ID         string `json:"id"`
	EntityKind string `json:"entityKind"`
	Operation  string `json:"operation"`
	Error      string `json:"error,omitempty"`
	Success    bool   `json:"success"`
	Conflict   bool   `json:"conflict,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

// Space is the wire representation of a space.
type Space struct {
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Icon             string     `json:"icon"`
	Color            string     `json:"color"`
	LastWriterDevice string     `json:"lastWriterDevice,omitempty"`
	Order            int        `json:"order"`
	IsVisible        bool       `json:"isVisible"`
}

// Category is the wire representation of a category.
// SpaceID is null for categories not attached to a space.
type Category struct {
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	SpaceID          *string    `json:"spaceId"`
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Icon             string     `json:"icon"`
	Color            string     `json:"color"`
	LastWriterDevice string     `json:"lastWriterDevice,omitempty"`
	Order            int        `json:"order"`
	IsVisible        bool       `json:"isVisible"`
}

// Item is the wire representation of an item. SpaceID and CategoryID
// are null for uncategorized items.
type Item struct {
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
	SpaceID          *string    `json:"spaceId"`
	CategoryID       *string    `json:"categoryId"`
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Priority         string     `json:"priority"`
	LastWriterDevice string     `json:"lastWriterDevice,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Order            int        `json:"order"`
	IsCompleted      bool       `json:"isCompleted"`
}

// ServerUpdates is the delta a client must merge locally.
type ServerUpdates struct {
	Spaces     []Space    `json:"spaces"`
	Categories []Category `json:"categories"`
	Items      []Item     `json:"items"`
}

// SyncResponse is the body returned by POST /api/v1/sync.
// SyncTimestamp is the value the client must pass as lastSyncTimestamp
// on its next call.
type SyncResponse struct {
	SyncTimestamp    time.Time     `json:"syncTimestamp"`
	Acknowledgements []ChangeAck   `json:"acknowledgements"`
	ServerUpdates    ServerUpdates `json:"serverUpdates"`
}

// InitialLoadResponse is the body returned by GET /api/v1/sync/initial.
// Tombstoned entities are excluded: a fresh device has nothing to delete.
type InitialLoadResponse struct {
	SyncTimestamp time.Time  `json:"syncTimestamp"`
	Spaces        []Space    `json:"spaces"`
	Categories    []Category `json:"categories"`
	Items         []Item     `json:"items"`
}

// Device is the wire representation of a registered device.
type Device struct {
	LastSyncAt  time.Time `json:"lastSyncAt"`
	CreatedAt   time.Time `json:"createdAt"`
	DeviceID    string    `json:"deviceId"`
	DisplayName string    `json:"displayName"`
}
