package storage

import (
	"context"
	"time"

	"github.com/iudanet/listsync/internal/models"
)

// SpaceStore persists spaces. All reads and writes are scoped by the
// owning account. Get returns tombstoned rows so conflict resolution
// can see them; the List methods differ on exactly that point.
type SpaceStore interface {
	// GetSpace retrieves a space by id, including tombstones.
	// Returns ErrEntityNotFound if no row exists for the account.
	GetSpace(ctx context.Context, ownerID, id string) (*models.Space, error)

	// InsertSpace writes a brand-new space.
	// Returns ErrEntityExists when the id is already taken.
	InsertSpace(ctx context.Context, space *models.Space) error

	// UpdateSpace conditionally replaces the stored version. The write
	// only lands if the stored updatedAt is not newer than notAfter;
	// otherwise ErrStaleWrite is returned and nothing changes.
	UpdateSpace(ctx context.Context, space *models.Space, notAfter time.Time) error

	// ListSpacesSince returns every space, tombstones included, with
	// updatedAt strictly after since.
	ListSpacesSince(ctx context.Context, ownerID string, since time.Time) ([]*models.Space, error)

	// ListActiveSpaces returns all non-deleted spaces ordered by order.
	ListActiveSpaces(ctx context.Context, ownerID string) ([]*models.Space, error)
}

// CategoryStore persists categories, same contract shape as SpaceStore.
type CategoryStore interface {
	GetCategory(ctx context.Context, ownerID, id string) (*models.Category, error)
	InsertCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category, notAfter time.Time) error
	ListCategoriesSince(ctx context.Context, ownerID string, since time.Time) ([]*models.Category, error)

	// ListActiveCategories returns non-deleted categories, optionally
	// filtered to one space (spaceID non-nil).
	ListActiveCategories(ctx context.Context, ownerID string, spaceID *string) ([]*models.Category, error)
}

// ItemFilter narrows ListActiveItems. Nil fields mean no filter.
type ItemFilter struct {
	SpaceID    *string
	CategoryID *string
	Completed  *bool
}

// ItemStore persists items, same contract shape as SpaceStore.
type ItemStore interface {
	GetItem(ctx context.Context, ownerID, id string) (*models.Item, error)
	InsertItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item, notAfter time.Time) error
	ListItemsSince(ctx context.Context, ownerID string, since time.Time) ([]*models.Item, error)
	ListActiveItems(ctx context.Context, ownerID string, filter ItemFilter) ([]*models.Item, error)
}

// UsageStats aggregates per-account entity counts for the debug surface.
type UsageStats struct {
	SpacesTotal      int
	SpacesActive     int
	CategoriesTotal  int
	CategoriesActive int
	ItemsTotal       int
	ItemsActive      int
	ItemsCompleted   int
}

// StatsStore computes aggregate counts.
type StatsStore interface {
	// Stats returns total/active/completed counts for the account.
	Stats(ctx context.Context, ownerID string) (*UsageStats, error)
}
