package sync

import (
	"context"
	"errors"

	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/internal/server/storage"
)

// Parent references are resolved to confirmed, account-owned entities
// before a write. A reference that does not resolve is dropped, leaving
// the entity uncategorized, rather than failing the change: the parent
// may arrive later in the same batch or in a future sync from another
// device. Entity ids are minted by clients and globally stable from
// creation, so resolution is an existence and ownership check only.

// resolveSpaceRef returns the referenced space id, or nil when the
// reference is null or does not resolve to a live, owned space.
func resolveSpaceRef(ctx context.Context, ds storage.DataStore, ownerID string, ref models.Field[string]) (*string, error) {
	if !ref.Valid || ref.Value == "" {
		return nil, nil
	}

	space, err := ds.GetSpace(ctx, ownerID, ref.Value)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if space.Deleted() {
		return nil, nil
	}

	id := ref.Value
	return &id, nil
}

// resolveCategoryRef returns the referenced category id, or nil when
// the reference is null or does not resolve to a live, owned category.
func resolveCategoryRef(ctx context.Context, ds storage.DataStore, ownerID string, ref models.Field[string]) (*string, error) {
	if !ref.Valid || ref.Value == "" {
		return nil, nil
	}

	category, err := ds.GetCategory(ctx, ownerID, ref.Value)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if category.Deleted() {
		return nil, nil
	}

	id := ref.Value
	return &id, nil
}
