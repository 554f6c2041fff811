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

const spaceColumns = `owner_id, id, name, icon, color, visible, sort_order,
	       last_writer_device, created_at, updated_at, deleted_at`

// GetSpace retrieves a space by id, tombstones included.
// Returns ErrEntityNotFound if no row exists for the account.
func (q *queries) GetSpace(ctx context.Context, ownerID, id string) (*models.Space, error) {
	query := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE owner_id = ? AND id = ?
	`

	space, err := scanSpace(q.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}

	return space, nil
}

// InsertSpace writes a brand-new space.
// Returns ErrEntityExists when the id is already taken for the account.
func (q *queries) InsertSpace(ctx context.Context, space *models.Space) error {
	query := `
		INSERT INTO spaces (` + spaceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, id) DO NOTHING
	`

	res, err := q.db.ExecContext(ctx, query,
		space.OwnerID,
		space.ID,
		space.Name,
		space.Icon,
		space.Color,
		boolToInt(space.Visible),
		space.Order,
		space.LastWriterDevice,
		toMillis(space.CreatedAt),
		toMillis(space.UpdatedAt),
		nullableMillis(space.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert space: %w", err)
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

// UpdateSpace replaces the stored version only if it has not advanced
// past notAfter. The conditional write is what makes concurrent
// last-write-wins safe: two racing updates cannot both land.
func (q *queries) UpdateSpace(ctx context.Context, space *models.Space, notAfter time.Time) error {
	query := `
		UPDATE spaces
		SET name = ?, icon = ?, color = ?, visible = ?, sort_order = ?,
		    last_writer_device = ?, updated_at = ?, deleted_at = ?
		WHERE owner_id = ? AND id = ? AND updated_at <= ?
	`

	res, err := q.db.ExecContext(ctx, query,
		space.Name,
		space.Icon,
		space.Color,
		boolToInt(space.Visible),
		space.Order,
		space.LastWriterDevice,
		toMillis(space.UpdatedAt),
		nullableMillis(space.DeletedAt),
		space.OwnerID,
		space.ID,
		toMillis(notAfter),
	)
	if err != nil {
		return fmt.Errorf("failed to update space: %w", err)
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

// ListSpacesSince returns every space, tombstones included, with
// updatedAt strictly after since.
func (q *queries) ListSpacesSince(ctx context.Context, ownerID string, since time.Time) ([]*models.Space, error) {
	query := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE owner_id = ? AND updated_at > ?
		ORDER BY updated_at ASC
	`

	rows, err := q.db.QueryContext(ctx, query, ownerID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces since timestamp: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanSpaces(rows)
}

// ListActiveSpaces returns all non-deleted spaces ordered for display.
func (q *queries) ListActiveSpaces(ctx context.Context, ownerID string) ([]*models.Space, error) {
	query := `
		SELECT ` + spaceColumns + `
		FROM spaces
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY sort_order ASC, created_at ASC
	`

	rows, err := q.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active spaces: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanSpaces(rows)
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanSpace(row scanner) (*models.Space, error) {
	space := &models.Space{}
	var visible int
	var createdAt, updatedAt int64
	var deletedAt sql.NullInt64

	err := row.Scan(
		&space.OwnerID,
		&space.ID,
		&space.Name,
		&space.Icon,
		&space.Color,
		&visible,
		&space.Order,
		&space.LastWriterDevice,
		&createdAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	space.Visible = intToBool(visible)
	space.CreatedAt = fromMillis(createdAt)
	space.UpdatedAt = fromMillis(updatedAt)
	space.DeletedAt = nullableTime(deletedAt)

	return space, nil
}

func scanSpaces(rows *sql.Rows) ([]*models.Space, error) {
	var spaces []*models.Space

	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, space)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return spaces, nil
}

// Helper functions for bool/int conversion
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
