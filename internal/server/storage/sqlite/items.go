package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/internal/server/storage"
)

const itemColumns = `owner_id, id, space_id, category_id, title, description, notes,
	       completed, completed_at, priority, sort_order, tags, due_date,
	       last_writer_device, created_at, updated_at, deleted_at`

// GetItem retrieves an item by id, tombstones included.
// Returns ErrEntityNotFound if no row exists for the account.
func (q *queries) GetItem(ctx context.Context, ownerID, id string) (*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE owner_id = ? AND id = ?
	`

	item, err := scanItem(q.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// InsertItem writes a brand-new item.
// Returns ErrEntityExists when the id is already taken for the account.
func (q *queries) InsertItem(ctx context.Context, item *models.Item) error {
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, id) DO NOTHING
	`

	res, err := q.db.ExecContext(ctx, query,
		item.OwnerID,
		item.ID,
		item.SpaceID,
		item.CategoryID,
		item.Title,
		item.Description,
		item.Notes,
		boolToInt(item.Completed),
		nullableMillis(item.CompletedAt),
		item.Priority,
		item.Order,
		string(tags),
		nullableMillis(item.DueDate),
		item.LastWriterDevice,
		toMillis(item.CreatedAt),
		toMillis(item.UpdatedAt),
		nullableMillis(item.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrEntityExists
	}

	return nil
}

// UpdateItem replaces the stored version only if it has not advanced
// past notAfter. Returns ErrStaleWrite otherwise.
func (q *queries) UpdateItem(ctx context.Context, item *models.Item, notAfter time.Time) error {
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		UPDATE items
		SET space_id = ?, category_id = ?, title = ?, description = ?, notes = ?,
		    completed = ?, completed_at = ?, priority = ?, sort_order = ?, tags = ?,
		    due_date = ?, last_writer_device = ?, updated_at = ?, deleted_at = ?
		WHERE owner_id = ? AND id = ? AND updated_at <= ?
	`

	res, err := q.db.ExecContext(ctx, query,
		item.SpaceID,
		item.CategoryID,
		item.Title,
		item.Description,
		item.Notes,
		boolToInt(item.Completed),
		nullableMillis(item.CompletedAt),
		item.Priority,
		item.Order,
		string(tags),
		nullableMillis(item.DueDate),
		item.LastWriterDevice,
		toMillis(item.UpdatedAt),
		nullableMillis(item.DeletedAt),
		item.OwnerID,
		item.ID,
		toMillis(notAfter),
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrStaleWrite
	}

	return nil
}

// ListItemsSince returns every item, tombstones included, with
// updatedAt strictly after since.
func (q *queries) ListItemsSince(ctx context.Context, ownerID string, since time.Time) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE owner_id = ? AND updated_at > ?
		ORDER BY updated_at ASC
	`

	rows, err := q.db.QueryContext(ctx, query, ownerID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query items since timestamp: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanItems(rows)
}

// ListActiveItems returns non-deleted items matching the filter.
func (q *queries) ListActiveItems(ctx context.Context, ownerID string, filter storage.ItemFilter) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE owner_id = ? AND deleted_at IS NULL
	`
	args := []any{ownerID}

	if filter.SpaceID != nil {
		query += ` AND space_id = ?`
		args = append(args, *filter.SpaceID)
	}
	if filter.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, boolToInt(*filter.Completed))
	}
	query += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanItems(rows)
}

func scanItem(row scanner) (*models.Item, error) {
	item := &models.Item{}
	var spaceID, categoryID sql.NullString
	var completed int
	var tags string
	var createdAt, updatedAt int64
	var completedAt, dueDate, deletedAt sql.NullInt64

	err := row.Scan(
		&item.OwnerID,
		&item.ID,
		&spaceID,
		&categoryID,
		&item.Title,
		&item.Description,
		&item.Notes,
		&completed,
		&completedAt,
		&item.Priority,
		&item.Order,
		&tags,
		&dueDate,
		&item.LastWriterDevice,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if spaceID.Valid {
		item.SpaceID = &spaceID.String
	}
	if categoryID.Valid {
		item.CategoryID = &categoryID.String
	}
	item.Completed = intToBool(completed)
	item.CompletedAt = nullableTime(completedAt)
	item.DueDate = nullableTime(dueDate)
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	item.DeletedAt = nullableTime(deletedAt)

	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	return item, nil
}

func scanItems(rows *sql.Rows) ([]*models.Item, error) {
	var items []*models.Item

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}
