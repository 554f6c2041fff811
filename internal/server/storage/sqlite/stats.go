package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/listsync/internal/server/storage"
)

// Stats returns total/active/completed counts for the account.
func (q *queries) Stats(ctx context.Context, ownerID string) (*storage.UsageStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM spaces WHERE owner_id = ?),
			(SELECT COUNT(*) FROM spaces WHERE owner_id = ? AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM categories WHERE owner_id = ?),
			(SELECT COUNT(*) FROM categories WHERE owner_id = ? AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM items WHERE owner_id = ?),
			(SELECT COUNT(*) FROM items WHERE owner_id = ? AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM items WHERE owner_id = ? AND deleted_at IS NULL AND completed = 1)
	`

	stats := &storage.UsageStats{}
	err := q.db.QueryRowContext(ctx, query,
		ownerID, ownerID, ownerID, ownerID, ownerID, ownerID, ownerID,
	).Scan(
		&stats.SpacesTotal,
		&stats.SpacesActive,
		&stats.CategoriesTotal,
		&stats.CategoriesActive,
		&stats.ItemsTotal,
		&stats.ItemsActive,
		&stats.ItemsCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	return stats, nil
}
