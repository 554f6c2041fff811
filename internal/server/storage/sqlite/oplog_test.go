package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listsync/internal/models"
)

func TestOperationLog_HasOperation(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	entry := &models.OperationLogEntry{
		OwnerID:     ownerID,
		DeviceID:    "device-1",
		EntityKind:  models.EntityKindItem,
		EntityID:    "item-1",
		Operation:   models.OperationCreate,
		OperationID: "op-1",
		Payload:     []byte(`{"title":"Buy milk"}`),
		Timestamp:   testTime(0),
	}
	require.NoError(t, s.AppendOperation(ctx, entry))

	exists, err := s.HasOperation(ctx, ownerID, "op-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.HasOperation(ctx, ownerID, "op-2")
	require.NoError(t, err)
	assert.False(t, exists)

	// operation ids are scoped per account
	otherOwner := createTestUser(t, ctx, s)
	exists, err = s.HasOperation(ctx, otherOwner, "op-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOperationLog_NaturalKey(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	ts := testTime(1000)

	// no operation id: dedup falls back to the natural key
	entry := &models.OperationLogEntry{
		OwnerID:    ownerID,
		DeviceID:   "device-1",
		EntityKind: models.EntityKindSpace,
		EntityID:   "space-1",
		Operation:  models.OperationUpdate,
		Payload:    []byte(`{"name":"Work"}`),
		Timestamp:  ts,
	}
	require.NoError(t, s.AppendOperation(ctx, entry))

	exists, err := s.HasOperationNatural(ctx, ownerID, "device-1",
		models.EntityKindSpace, "space-1", models.OperationUpdate, ts)
	require.NoError(t, err)
	assert.True(t, exists)

	// any differing component misses
	exists, err = s.HasOperationNatural(ctx, ownerID, "device-2",
		models.EntityKindSpace, "space-1", models.OperationUpdate, ts)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = s.HasOperationNatural(ctx, ownerID, "device-1",
		models.EntityKindSpace, "space-1", models.OperationUpdate, testTime(1001))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOperationLog_MultipleEntriesWithoutOperationID(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	// rows without operation ids must not collide on the partial
	// unique index
	for i := 0; i < 3; i++ {
		entry := &models.OperationLogEntry{
			OwnerID:    ownerID,
			DeviceID:   "device-1",
			EntityKind: models.EntityKindItem,
			EntityID:   "item-1",
			Operation:  models.OperationUpdate,
			Timestamp:  testTime(int64(i)),
		}
		require.NoError(t, s.AppendOperation(ctx, entry))
	}
}
