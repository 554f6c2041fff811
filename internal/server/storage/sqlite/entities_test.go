package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage) string {
	userID := uuid.New().String()
	user := &models.User{
		ID:           userID,
		Username:     "testuser_" + userID[:8],
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}

	err := s.CreateUser(ctx, user)
	require.NoError(t, err)

	return userID
}

func testTime(offsetMs int64) time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(offsetMs) * time.Millisecond)
}

func testSpace(ownerID, id string, ts time.Time) *models.Space {
	return &models.Space{
		ID:               id,
		OwnerID:          ownerID,
		Name:             "Home",
		Icon:             models.DefaultSpaceIcon,
		Color:            models.DefaultSpaceColor,
		Visible:          true,
		LastWriterDevice: "device-1",
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
}

func TestSpaceStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	ts := testTime(0)

	space := testSpace(ownerID, "space-1", ts)
	require.NoError(t, s.InsertSpace(ctx, space))

	got, err := s.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, "Home", got.Name)
	assert.Equal(t, models.DefaultSpaceIcon, got.Icon)
	assert.True(t, got.Visible)
	assert.Equal(t, ts, got.UpdatedAt)
	assert.Nil(t, got.DeletedAt)
}

func TestSpaceStore_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	space := testSpace(ownerID, "space-1", testTime(0))
	require.NoError(t, s.InsertSpace(ctx, space))

	err := s.InsertSpace(ctx, testSpace(ownerID, "space-1", testTime(100)))
	assert.ErrorIs(t, err, storage.ErrEntityExists)

	// the stored row is untouched
	got, err := s.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, testTime(0), got.UpdatedAt)
}

func TestSpaceStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	_, err := s.GetSpace(ctx, ownerID, "missing")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestSpaceStore_GetScopedByOwner(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	owner1 := createTestUser(t, ctx, s)
	owner2 := createTestUser(t, ctx, s)

	require.NoError(t, s.InsertSpace(ctx, testSpace(owner1, "space-1", testTime(0))))

	_, err := s.GetSpace(ctx, owner2, "space-1")
	assert.ErrorIs(t, err, storage.ErrEntityNotFound)
}

func TestSpaceStore_UpdateConditional(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	space := testSpace(ownerID, "space-1", testTime(0))
	require.NoError(t, s.InsertSpace(ctx, space))

	// advance the stored version
	space.Name = "Work"
	space.UpdatedAt = testTime(2000)
	require.NoError(t, s.UpdateSpace(ctx, space, testTime(2000)))

	// a write conditioned on an older timestamp must not land
	stale := testSpace(ownerID, "space-1", testTime(1000))
	stale.Name = "Stale"
	err := s.UpdateSpace(ctx, stale, testTime(1000))
	assert.ErrorIs(t, err, storage.ErrStaleWrite)

	got, err := s.GetSpace(ctx, ownerID, "space-1")
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, testTime(2000), got.UpdatedAt)
}

func TestSpaceStore_ListSince(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	require.NoError(t, s.InsertSpace(ctx, testSpace(ownerID, "space-old", testTime(0))))
	require.NoError(t, s.InsertSpace(ctx, testSpace(ownerID, "space-new", testTime(5000))))

	deleted := testSpace(ownerID, "space-deleted", testTime(6000))
	deletedAt := testTime(6000)
	deleted.DeletedAt = &deletedAt
	require.NoError(t, s.InsertSpace(ctx, deleted))

	// strictly-after filter: the row at exactly `since` is excluded
	spaces, err := s.ListSpacesSince(ctx, ownerID, testTime(0))
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	assert.Equal(t, "space-new", spaces[0].ID)
	assert.Equal(t, "space-deleted", spaces[1].ID)
	assert.NotNil(t, spaces[1].DeletedAt)

	// zero since returns everything
	spaces, err = s.ListSpacesSince(ctx, ownerID, time.Time{})
	require.NoError(t, err)
	assert.Len(t, spaces, 3)
}

func TestSpaceStore_ListActiveExcludesTombstones(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)

	first := testSpace(ownerID, "space-b", testTime(0))
	first.Order = 2
	require.NoError(t, s.InsertSpace(ctx, first))

	second := testSpace(ownerID, "space-a", testTime(100))
	second.Order = 1
	require.NoError(t, s.InsertSpace(ctx, second))

	deleted := testSpace(ownerID, "space-deleted", testTime(200))
	deletedAt := testTime(200)
	deleted.DeletedAt = &deletedAt
	require.NoError(t, s.InsertSpace(ctx, deleted))

	spaces, err := s.ListActiveSpaces(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	assert.Equal(t, "space-a", spaces[0].ID)
	assert.Equal(t, "space-b", spaces[1].ID)
}

func TestCategoryStore_SpaceFilter(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	ts := testTime(0)

	require.NoError(t, s.InsertSpace(ctx, testSpace(ownerID, "space-1", ts)))

	spaceID := "space-1"
	attached := &models.Category{
		ID:               "cat-1",
		OwnerID:          ownerID,
		SpaceID:          &spaceID,
		Name:             "Groceries",
		Icon:             models.DefaultCategoryIcon,
		Color:            models.DefaultCategoryColor,
		Visible:          true,
		LastWriterDevice: "device-1",
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	require.NoError(t, s.InsertCategory(ctx, attached))

	detached := &models.Category{
		ID:               "cat-2",
		OwnerID:          ownerID,
		Name:             "Unsorted",
		Icon:             models.DefaultCategoryIcon,
		Color:            models.DefaultCategoryColor,
		Visible:          true,
		LastWriterDevice: "device-1",
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	require.NoError(t, s.InsertCategory(ctx, detached))

	all, err := s.ListActiveCategories(ctx, ownerID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := s.ListActiveCategories(ctx, ownerID, &spaceID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "cat-1", filtered[0].ID)
	require.NotNil(t, filtered[0].SpaceID)
	assert.Equal(t, "space-1", *filtered[0].SpaceID)
}

func TestItemStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	ts := testTime(0)
	due := testTime(86400000)

	item := &models.Item{
		ID:               "item-1",
		OwnerID:          ownerID,
		Title:            "Buy milk",
		Description:      "2 liters",
		Notes:            "lactose free",
		Priority:         models.PriorityHigh,
		Tags:             []string{"shopping", "urgent"},
		Order:            3,
		DueDate:          &due,
		LastWriterDevice: "device-1",
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	require.NoError(t, s.InsertItem(ctx, item))

	got, err := s.GetItem(ctx, ownerID, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2 liters", got.Description)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"shopping", "urgent"}, got.Tags)
	assert.Equal(t, 3, got.Order)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, due, *got.DueDate)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestItemStore_Filters(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	ts := testTime(0)

	spaceID := "space-1"
	categoryID := "cat-1"
	completedAt := testTime(100)

	items := []*models.Item{
		{
			ID: "item-1", OwnerID: ownerID, Title: "In category",
			SpaceID: &spaceID, CategoryID: &categoryID,
			Priority: models.PriorityMedium, LastWriterDevice: "device-1",
			CreatedAt: ts, UpdatedAt: ts,
		},
		{
			ID: "item-2", OwnerID: ownerID, Title: "Uncategorized done",
			Completed: true, CompletedAt: &completedAt,
			Priority: models.PriorityMedium, LastWriterDevice: "device-1",
			CreatedAt: ts, UpdatedAt: ts,
		},
		{
			ID: "item-3", OwnerID: ownerID, Title: "In space only",
			SpaceID:  &spaceID,
			Priority: models.PriorityMedium, LastWriterDevice: "device-1",
			CreatedAt: ts, UpdatedAt: ts,
		},
	}
	for _, item := range items {
		require.NoError(t, s.InsertItem(ctx, item))
	}

	all, err := s.ListActiveItems(ctx, ownerID, storage.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySpace, err := s.ListActiveItems(ctx, ownerID, storage.ItemFilter{SpaceID: &spaceID})
	require.NoError(t, err)
	assert.Len(t, bySpace, 2)

	byCategory, err := s.ListActiveItems(ctx, ownerID, storage.ItemFilter{CategoryID: &categoryID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "item-1", byCategory[0].ID)

	completed := true
	byCompleted, err := s.ListActiveItems(ctx, ownerID, storage.ItemFilter{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, byCompleted, 1)
	assert.Equal(t, "item-2", byCompleted[0].ID)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s)
	ts := testTime(0)

	require.NoError(t, s.InsertSpace(ctx, testSpace(ownerID, "space-1", ts)))

	deletedSpace := testSpace(ownerID, "space-2", ts)
	deletedAt := ts
	deletedSpace.DeletedAt = &deletedAt
	require.NoError(t, s.InsertSpace(ctx, deletedSpace))

	completedAt := ts
	items := []*models.Item{
		{ID: "item-1", OwnerID: ownerID, Title: "a", Priority: models.PriorityMedium, LastWriterDevice: "d", CreatedAt: ts, UpdatedAt: ts},
		{ID: "item-2", OwnerID: ownerID, Title: "b", Priority: models.PriorityMedium, Completed: true, CompletedAt: &completedAt, LastWriterDevice: "d", CreatedAt: ts, UpdatedAt: ts},
	}
	for _, item := range items {
		require.NoError(t, s.InsertItem(ctx, item))
	}

	stats, err := s.Stats(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SpacesTotal)
	assert.Equal(t, 1, stats.SpacesActive)
	assert.Equal(t, 0, stats.CategoriesTotal)
	assert.Equal(t, 2, stats.ItemsTotal)
	assert.Equal(t, 2, stats.ItemsActive)
	assert.Equal(t, 1, stats.ItemsCompleted)
}
