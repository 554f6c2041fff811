package sync

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/internal/server/storage/sqlite"
	"github.com/iudanet/listsync/pkg/api"
)

var serverNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*Service, *sqlite.Storage, string) {
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ownerID := uuid.New().String()
	user := &models.User{
		ID:           ownerID,
		Username:     "testuser_" + ownerID[:8],
		PasswordHash: "hash",
		CreatedAt:    serverNow,
	}
	require.NoError(t, store.CreateUser(ctx, user))

	service := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	service.now = func() time.Time { return serverNow }

	return service, store, ownerID
}

func ts(offsetMs int64) time.Time {
	return serverNow.Add(time.Duration(offsetMs) * time.Millisecond)
}

func change(kind, op, id string, at time.Time, data string) api.Change {
	ch := api.Change{
		ID:         id,
		EntityKind: kind,
		Operation:  op,
		Timestamp:  &at,
	}
	if data != "" {
		ch.Data = json.RawMessage(data)
	}
	return ch
}

func syncRequest(changes ...api.Change) *api.SyncRequest {
	return &api.SyncRequest{
		DeviceID: "device-1",
		Changes:  changes,
	}
}

func TestService_MissingDevice(t *testing.T) {
	service, _, ownerID := setupService(t)

	_, err := service.Sync(context.Background(), ownerID, &api.SyncRequest{})
	assert.ErrorIs(t, err, ErrMissingDevice)
}

func TestService_CreateSpace(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(-1000), `{"name":"Home","color":"#ff0000"}`),
	))
	require.NoError(t, err)

	require.Len(t, resp.Acknowledgements, 1)
	ack := resp.Acknowledgements[0]
	assert.True(t, ack.Success)
	assert.False(t, ack.Conflict)
	assert.Empty(t, ack.Error)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, "Home", space.Name)
	assert.Equal(t, "#ff0000", space.Color)
	// omitted fields get defaults
	assert.Equal(t, models.DefaultSpaceIcon, space.Icon)
	assert.True(t, space.Visible)
	assert.Equal(t, "device-1", space.LastWriterDevice)
	assert.Equal(t, ts(-1000), space.UpdatedAt)

	// the new space is part of the returned delta
	require.Len(t, resp.ServerUpdates.Spaces, 1)
	assert.Equal(t, "space-1", resp.ServerUpdates.Spaces[0].ID)
	assert.False(t, resp.SyncTimestamp.Before(space.UpdatedAt))
}

func TestService_CreateRequiresName(t *testing.T) {
	service, _, ownerID := setupService(t)

	resp, err := service.Sync(context.Background(), ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"color":"#ff0000"}`),
	))
	require.NoError(t, err)

	require.Len(t, resp.Acknowledgements, 1)
	assert.False(t, resp.Acknowledgements[0].Success)
	assert.Contains(t, resp.Acknowledgements[0].Error, "name is required")
}

func TestService_IdempotentCreate(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
	))
	require.NoError(t, err)

	// a re-delivered create for an existing id succeeds without
	// touching the stored entity
	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(5000), `{"name":"Hijacked"}`),
	))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Success)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, "Home", space.Name)
	assert.Equal(t, ts(0), space.UpdatedAt)
}

func TestService_DuplicateOperationID(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	create := change("item", "create", "item-1", ts(0), `{"title":"Buy milk"}`)
	create.OperationID = "op-1"

	_, err := service.Sync(ctx, ownerID, syncRequest(create))
	require.NoError(t, err)

	// same operation id re-delivered as an update: suppressed
	update := change("item", "update", "item-1", ts(1000), `{"title":"Changed"}`)
	update.OperationID = "op-1"

	resp, err := service.Sync(ctx, ownerID, syncRequest(update))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Success)
	assert.True(t, resp.Acknowledgements[0].Duplicate)

	item, err := store.GetItem(ctx, ownerID, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", item.Title)
}

func TestService_DuplicateNaturalKey(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	// no operation id: the (device, entity, operation, timestamp)
	// natural key deduplicates the redelivery
	update := change("space", "create", "space-1", ts(0), `{"name":"Home"}`)

	_, err := service.Sync(ctx, ownerID, syncRequest(update))
	require.NoError(t, err)

	resp, err := service.Sync(ctx, ownerID, syncRequest(update))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Success)
	assert.True(t, resp.Acknowledgements[0].Duplicate)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, ts(0), space.UpdatedAt)
}

func TestService_LastWriteWins(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
		change("space", "update", "space-1", ts(2000), `{"name":"Newest"}`),
	))
	require.NoError(t, err)

	// an out-of-order older update loses and reports a conflict
	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "update", "space-1", ts(1000), `{"name":"Stale"}`),
	))
	require.NoError(t, err)

	ack := resp.Acknowledgements[0]
	assert.True(t, ack.Success)
	assert.True(t, ack.Conflict)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, "Newest", space.Name)
	assert.Equal(t, ts(2000), space.UpdatedAt)
}

func TestService_EqualTimestampFavorsIncoming(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
	))
	require.NoError(t, err)

	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "update", "space-1", ts(0), `{"name":"Tied"}`),
	))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Success)
	assert.False(t, resp.Acknowledgements[0].Conflict)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, "Tied", space.Name)
}

func TestService_PartialUpdate(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("item", "create", "item-1", ts(0), `{"title":"Buy milk","priority":"high","tags":["shopping"]}`),
	))
	require.NoError(t, err)

	// only the sent fields change
	_, err = service.Sync(ctx, ownerID, syncRequest(
		change("item", "update", "item-1", ts(1000), `{"notes":"lactose free"}`),
	))
	require.NoError(t, err)

	item, err := store.GetItem(ctx, ownerID, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", item.Title)
	assert.Equal(t, models.PriorityHigh, item.Priority)
	assert.Equal(t, []string{"shopping"}, item.Tags)
	assert.Equal(t, "lactose free", item.Notes)
	assert.Equal(t, ts(1000), item.UpdatedAt)
}

func TestService_CompletionTimestamps(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("item", "create", "item-1", ts(0), `{"title":"Buy milk"}`),
		change("item", "update", "item-1", ts(1000), `{"isCompleted":true}`),
	))
	require.NoError(t, err)

	item, err := store.GetItem(ctx, ownerID, "item-1")
	require.NoError(t, err)
	assert.True(t, item.Completed)
	require.NotNil(t, item.CompletedAt)
	assert.Equal(t, ts(1000), *item.CompletedAt)

	_, err = service.Sync(ctx, ownerID, syncRequest(
		change("item", "update", "item-1", ts(2000), `{"isCompleted":false}`),
	))
	require.NoError(t, err)

	item, err = store.GetItem(ctx, ownerID, "item-1")
	require.NoError(t, err)
	assert.False(t, item.Completed)
	assert.Nil(t, item.CompletedAt)
}

func TestService_InvalidPriorityRejected(t *testing.T) {
	service, _, ownerID := setupService(t)

	resp, err := service.Sync(context.Background(), ownerID, syncRequest(
		change("item", "create", "item-1", ts(0), `{"title":"Buy milk","priority":"urgent"}`),
	))
	require.NoError(t, err)
	assert.False(t, resp.Acknowledgements[0].Success)
	assert.Contains(t, resp.Acknowledgements[0].Error, "priority")
}

func TestService_DeleteCreatesTombstone(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
		change("space", "delete", "space-1", ts(1000), ""),
	))
	require.NoError(t, err)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	require.NotNil(t, space.DeletedAt)
	assert.Equal(t, ts(1000), *space.DeletedAt)
	assert.Equal(t, ts(1000), space.UpdatedAt)
}

func TestService_DeleteIdempotent(t *testing.T) {
	service, _, ownerID := setupService(t)
	ctx := context.Background()

	// deleting an absent entity succeeds
	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("item", "delete", "never-existed", ts(0), ""),
	))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Success)

	// deleting twice succeeds too
	_, err = service.Sync(ctx, ownerID, syncRequest(
		change("item", "create", "item-1", ts(0), `{"title":"Buy milk"}`),
		change("item", "delete", "item-1", ts(1000), ""),
	))
	require.NoError(t, err)

	resp, err = service.Sync(ctx, ownerID, syncRequest(
		change("item", "delete", "item-1", ts(2000), ""),
	))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Success)
}

func TestService_DeleteObeysLastWriteWins(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
		change("space", "update", "space-1", ts(2000), `{"name":"Kept"}`),
	))
	require.NoError(t, err)

	// a delete carrying an older timestamp than the stored version
	// loses the conflict and must not tombstone the entity
	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "delete", "space-1", ts(1000), ""),
	))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Conflict)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Nil(t, space.DeletedAt)
	assert.Equal(t, "Kept", space.Name)
}

func TestService_UpdateMissingEntity(t *testing.T) {
	service, _, ownerID := setupService(t)

	resp, err := service.Sync(context.Background(), ownerID, syncRequest(
		change("space", "update", "missing", ts(0), `{"name":"Ghost"}`),
	))
	require.NoError(t, err)
	assert.False(t, resp.Acknowledgements[0].Success)
	assert.Contains(t, resp.Acknowledgements[0].Error, "not found")
}

func TestService_InvalidChangeContained(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	// a malformed change fails alone; its sibling still applies
	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("folder", "create", "x-1", ts(0), `{"name":"Bad kind"}`),
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
	))
	require.NoError(t, err)

	require.Len(t, resp.Acknowledgements, 2)
	assert.False(t, resp.Acknowledgements[0].Success)
	assert.Contains(t, resp.Acknowledgements[0].Error, "unknown entity kind")
	assert.True(t, resp.Acknowledgements[1].Success)

	_, err = store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
}

func TestService_BatchResolvesRefsInOrder(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	// parents created earlier in the same batch are visible to later
	// changes
	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
		change("category", "create", "cat-1", ts(0), `{"name":"Groceries","spaceId":"space-1"}`),
		change("item", "create", "item-1", ts(0), `{"title":"Buy milk","spaceId":"space-1","categoryId":"cat-1"}`),
	))
	require.NoError(t, err)

	for _, ack := range resp.Acknowledgements {
		assert.True(t, ack.Success, "change %s", ack.ID)
	}

	category, err := store.GetCategory(ctx, ownerID, "cat-1")
	require.NoError(t, err)
	require.NotNil(t, category.SpaceID)
	assert.Equal(t, "space-1", *category.SpaceID)

	item, err := store.GetItem(ctx, ownerID, "item-1")
	require.NoError(t, err)
	require.NotNil(t, item.SpaceID)
	require.NotNil(t, item.CategoryID)
	assert.Equal(t, "cat-1", *item.CategoryID)
}

func TestService_UnresolvableRefDropped(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("item", "create", "item-1", ts(0), `{"title":"Buy milk","spaceId":"no-such-space"}`),
	))
	require.NoError(t, err)
	assert.True(t, resp.Acknowledgements[0].Success)

	item, err := store.GetItem(ctx, ownerID, "item-1")
	require.NoError(t, err)
	assert.Nil(t, item.SpaceID)
}

func TestService_RefToTombstonedParentDropped(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
		change("space", "delete", "space-1", ts(1000), ""),
		change("category", "create", "cat-1", ts(2000), `{"name":"Groceries","spaceId":"space-1"}`),
	))
	require.NoError(t, err)

	category, err := store.GetCategory(ctx, ownerID, "cat-1")
	require.NoError(t, err)
	assert.Nil(t, category.SpaceID)
}

func TestService_DeltaAndTombstonePropagation(t *testing.T) {
	service, _, ownerID := setupService(t)
	ctx := context.Background()

	first, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(-2000), `{"name":"Home"}`),
		change("item", "create", "item-1", ts(-2000), `{"title":"Buy milk"}`),
	))
	require.NoError(t, err)

	// another device deletes the item
	_, err = service.Sync(ctx, ownerID, &api.SyncRequest{
		DeviceID: "device-2",
		Changes: []api.Change{
			change("item", "delete", "item-1", ts(1000), ""),
		},
	})
	require.NoError(t, err)

	// the first device syncs again: only the tombstone comes back
	resp, err := service.Sync(ctx, ownerID, &api.SyncRequest{
		LastSyncTimestamp: &first.SyncTimestamp,
		DeviceID:          "device-1",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.ServerUpdates.Spaces)
	require.Len(t, resp.ServerUpdates.Items, 1)
	assert.Equal(t, "item-1", resp.ServerUpdates.Items[0].ID)
	assert.NotNil(t, resp.ServerUpdates.Items[0].DeletedAt)

	// a further sync from the returned checkpoint is quiet
	resp2, err := service.Sync(ctx, ownerID, &api.SyncRequest{
		LastSyncTimestamp: &resp.SyncTimestamp,
		DeviceID:          "device-1",
	})
	require.NoError(t, err)
	assert.Empty(t, resp2.ServerUpdates.Spaces)
	assert.Empty(t, resp2.ServerUpdates.Categories)
	assert.Empty(t, resp2.ServerUpdates.Items)
}

func TestService_SyncTimestampCoversAheadOfClockRows(t *testing.T) {
	service, _, ownerID := setupService(t)
	ctx := context.Background()

	// a client clock ahead of the server must not cause re-delivery
	ahead := ts(60000)
	resp, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ahead, `{"name":"Home"}`),
	))
	require.NoError(t, err)
	assert.False(t, resp.SyncTimestamp.Before(ahead))

	resp2, err := service.Sync(ctx, ownerID, &api.SyncRequest{
		LastSyncTimestamp: &resp.SyncTimestamp,
		DeviceID:          "device-1",
	})
	require.NoError(t, err)
	assert.Empty(t, resp2.ServerUpdates.Spaces)
}

func TestService_ChangeWithoutTimestampUsesServerClock(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	ch := api.Change{
		ID:         "space-1",
		EntityKind: "space",
		Operation:  "create",
		Data:       json.RawMessage(`{"name":"Home"}`),
	}

	_, err := service.Sync(ctx, ownerID, syncRequest(ch))
	require.NoError(t, err)

	space, err := store.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, serverNow, space.UpdatedAt)
}

func TestService_InitialLoadExcludesTombstones(t *testing.T) {
	service, _, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Home"}`),
		change("item", "create", "item-1", ts(0), `{"title":"Buy milk"}`),
		change("item", "create", "item-2", ts(0), `{"title":"Walk dog"}`),
		change("item", "delete", "item-2", ts(1000), ""),
	))
	require.NoError(t, err)

	resp, err := service.InitialLoad(ctx, ownerID)
	require.NoError(t, err)

	require.Len(t, resp.Spaces, 1)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "item-1", resp.Items[0].ID)
	assert.Empty(t, resp.Categories)
}

func TestService_RegistersDevice(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	_, err := service.Sync(ctx, ownerID, &api.SyncRequest{
		DeviceID:   "phone-1",
		DeviceName: "My phone",
	})
	require.NoError(t, err)

	devices, err := store.ListDevices(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "phone-1", devices[0].DeviceID)
	assert.Equal(t, "My phone", devices[0].DisplayName)
	assert.Equal(t, serverNow, devices[0].LastSyncAt)
}

func TestService_AccountIsolation(t *testing.T) {
	service, store, ownerID := setupService(t)
	ctx := context.Background()

	otherID := uuid.New().String()
	require.NoError(t, store.CreateUser(ctx, &models.User{
		ID:           otherID,
		Username:     "other_" + otherID[:8],
		PasswordHash: "hash",
		CreatedAt:    serverNow,
	}))

	_, err := service.Sync(ctx, ownerID, syncRequest(
		change("space", "create", "space-1", ts(0), `{"name":"Mine"}`),
	))
	require.NoError(t, err)

	resp, err := service.Sync(ctx, otherID, syncRequest())
	require.NoError(t, err)
	assert.Empty(t, resp.ServerUpdates.Spaces)

	load, err := service.InitialLoad(ctx, otherID)
	require.NoError(t, err)
	assert.Empty(t, load.Spaces)
}
