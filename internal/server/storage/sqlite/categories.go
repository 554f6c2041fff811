package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/internal/server/storage"
)

const categoryColumns = `owner_id, id, space_id, name, icon, color, visible, sort_order,
	       last_writer_device, created_at, updated_at, deleted_at`

// GetCategory retrieves a category by id, tombstones included.
// Returns ErrEntityNotFound if no row exists for the account.
func (q *queries) GetCategory(ctx context.Context, ownerID, id string) (*models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE owner_id = ? AND id = ?
	`

	category, err := scanCategory(q.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// InsertCategory writes a brand-new category.
// Returns ErrEntityExists when the id is already taken for the account.
func (q *queries) InsertCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, id) DO NOTHING
	`

	res, err := q.db.ExecContext(ctx, query,
		category.OwnerID,
		category.ID,
		category.SpaceID,
		category.Name,
		category.Icon,
		category.Color,
		boolToInt(category.Visible),
		category.Order,
		category.LastWriterDevice,
		toMillis(category.CreatedAt),
		toMillis(category.UpdatedAt),
		nullableMillis(category.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
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

// UpdateCategory replaces the stored version only if it has not
// advanced past notAfter. Returns ErrStaleWrite otherwise.
func (q *queries) UpdateCategory(ctx context.Context, category *models.Category, notAfter time.Time) error {
	query := `
		UPDATE categories
		SET space_id = ?, name = ?, icon = ?, color = ?, visible = ?, sort_order = ?,
		    last_writer_device = ?, updated_at = ?, deleted_at = ?
		WHERE owner_id = ? AND id = ? AND updated_at <= ?
	`

	res, err := q.db.ExecContext(ctx, query,
		category.SpaceID,
		category.Name,
		category.Icon,
		category.Color,
		boolToInt(category.Visible),
		category.Order,
		category.LastWriterDevice,
		toMillis(category.UpdatedAt),
		nullableMillis(category.DeletedAt),
		category.OwnerID,
		category.ID,
		toMillis(notAfter),
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
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

// ListCategoriesSince returns every category, tombstones included,
// with updatedAt strictly after since.
func (q *queries) ListCategoriesSince(ctx context.Context, ownerID string, since time.Time) ([]*models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE owner_id = ? AND updated_at > ?
		ORDER BY updated_at ASC
	`

	rows, err := q.db.QueryContext(ctx, query, ownerID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query categories since timestamp: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanCategories(rows)
}

// ListActiveCategories returns non-deleted categories, optionally
// filtered to one space.
func (q *queries) ListActiveCategories(ctx context.Context, ownerID string, spaceID *string) ([]*models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE owner_id = ? AND deleted_at IS NULL
	`
	args := []any{ownerID}

	if spaceID != nil {
		query += ` AND space_id = ?`
		args = append(args, *spaceID)
	}
	query += ` ORDER BY sort_order ASC, created_at ASC`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanCategories(rows)
}

func scanCategory(row scanner) (*models.Category, error) {
	category := &models.Category{}
	var spaceID sql.NullString
	var visible int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64

	err := row.Scan(
		&category.OwnerID,
		&category.ID,
		&spaceID,
		&category.Name,
		&category.Icon,
		&category.Color,
		&visible,
		&category.Order,
		&category.LastWriterDevice,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if spaceID.Valid {
		category.SpaceID = &spaceID.String
	}
	category.Visible = intToBool(visible)
	category.CreatedAt = fromMillis(createdAt)
	category.UpdatedAt = fromMillis(updatedAt)
	category.DeletedAt = nullableTime(deletedAt)

	return category, nil
}

func scanCategories(rows *sql.Rows) ([]*models.Category, error) {
	var categories []*models.Category

	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return categories, nil
}
