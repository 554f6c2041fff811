package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/internal/server/storage"
	"github.com/iudanet/listsync/pkg/api"
)

// Result is the per-change outcome reported back to the client.
// Conflict and Duplicate are normal outcomes of concurrent offline
// edits and retried deliveries, not faults.
type Result struct {
	Conflict  bool
	Duplicate bool
}

// Applier runs a single change through validation, the idempotency
// check, conflict resolution, the store write, and the log append.
// The caller supplies a transactional DataStore so the entity write
// and its log entry commit together.
type Applier struct {
	logger *slog.Logger
}

// NewApplier creates a change applier.
func NewApplier(logger *slog.Logger) *Applier {
	return &Applier{logger: logger}
}

// Apply runs one change for the account. ts is the resolved logical
// timestamp of the change. Errors satisfying IsChangeError fail only
// this change; anything else is a storage fault.
func (a *Applier) Apply(ctx context.Context, ds storage.DataStore, ownerID, deviceID string, ch api.Change, ts time.Time) (Result, error) {
	if ch.ID == "" {
		return Result{}, fmt.Errorf("%w: id is required", ErrInvalidChange)
	}

	kind, err := models.ParseEntityKind(ch.EntityKind)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEntityKind, ch.EntityKind)
	}

	op, err := models.ParseOperation(ch.Operation)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q is not an operation", ErrInvalidChange, ch.Operation)
	}

	duplicate, err := a.isDuplicate(ctx, ds, ownerID, deviceID, kind, ch, op, ts)
	if err != nil {
		return Result{}, err
	}
	if duplicate {
		a.logger.DebugContext(ctx, "duplicate change delivery suppressed",
			slog.String("entity_id", ch.ID),
			slog.String("operation_id", ch.OperationID))
		return Result{Duplicate: true}, nil
	}

	var res Result
	var applied bool

	switch kind {
	case models.EntityKindSpace:
		res, applied, err = a.applySpace(ctx, ds, ownerID, deviceID, ch, op, ts)
	case models.EntityKindCategory:
		res, applied, err = a.applyCategory(ctx, ds, ownerID, deviceID, ch, op, ts)
	case models.EntityKindItem:
		res, applied, err = a.applyItem(ctx, ds, ownerID, deviceID, ch, op, ts)
	}
	if err != nil {
		return Result{}, err
	}

	// Only applied mutations are logged; no-op outcomes (idempotent
	// re-creates, deletes of absent entities, lost conflicts) leave
	// no trace so they can never shadow a later genuine operation.
	if applied {
		entry := &models.OperationLogEntry{
			OwnerID:     ownerID,
			DeviceID:    deviceID,
			EntityKind:  kind,
			EntityID:    ch.ID,
			Operation:   op,
			OperationID: ch.OperationID,
			Payload:     ch.Data,
			Timestamp:   ts,
		}
		if err := ds.AppendOperation(ctx, entry); err != nil {
			return Result{}, err
		}
	}

	return res, nil
}

// isDuplicate consults the operation log: by the client-assigned
// operation id when present, otherwise by the natural key.
func (a *Applier) isDuplicate(ctx context.Context, ds storage.DataStore, ownerID, deviceID string,
	kind models.EntityKind, ch api.Change, op models.Operation, ts time.Time) (bool, error) {
	if ch.OperationID != "" {
		return ds.HasOperation(ctx, ownerID, ch.OperationID)
	}
	return ds.HasOperationNatural(ctx, ownerID, deviceID, kind, ch.ID, op, ts)
}

func (a *Applier) applySpace(ctx context.Context, ds storage.DataStore, ownerID, deviceID string,
	ch api.Change, op models.Operation, ts time.Time) (Result, bool, error) {
	switch op {
	case models.OperationCreate:
		_, err := ds.GetSpace(ctx, ownerID, ch.ID)
		if err == nil {
			// Already applied, likely by an earlier delivery.
			return Result{}, false, nil
		}
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return Result{}, false, err
		}

		var patch models.SpacePatch
		if err := decodePatch(ch.Data, &patch); err != nil {
			return Result{}, false, err
		}
		if !patch.Name.Valid || patch.Name.Value == "" {
			return Result{}, false, fmt.Errorf("%w: space name is required", ErrInvalidChange)
		}

		space := &models.Space{
			ID:               ch.ID,
			OwnerID:          ownerID,
			Icon:             models.DefaultSpaceIcon,
			Color:            models.DefaultSpaceColor,
			Visible:          true,
			LastWriterDevice: deviceID,
			CreatedAt:        ts,
			UpdatedAt:        ts,
		}
		patch.Apply(space)

		if err := ds.InsertSpace(ctx, space); err != nil {
			if errors.Is(err, storage.ErrEntityExists) {
				return Result{}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil

	case models.OperationUpdate:
		space, err := ds.GetSpace(ctx, ownerID, ch.ID)
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return Result{}, false, fmt.Errorf("%w: space %q", ErrNotFound, ch.ID)
			}
			return Result{}, false, err
		}
		if !IncomingWins(ts, space.UpdatedAt) {
			return Result{Conflict: true}, false, nil
		}

		var patch models.SpacePatch
		if err := decodePatch(ch.Data, &patch); err != nil {
			return Result{}, false, err
		}
		patch.Apply(space)
		space.UpdatedAt = ts
		space.LastWriterDevice = deviceID

		if err := ds.UpdateSpace(ctx, space, ts); err != nil {
			if errors.Is(err, storage.ErrStaleWrite) {
				return Result{Conflict: true}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil

	case models.OperationDelete:
		space, err := ds.GetSpace(ctx, ownerID, ch.ID)
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				// Already deleted or never seen: both fine.
				return Result{}, false, nil
			}
			return Result{}, false, err
		}
		if space.Deleted() {
			return Result{}, false, nil
		}
		if !IncomingWins(ts, space.UpdatedAt) {
			return Result{Conflict: true}, false, nil
		}

		deletedAt := ts
		space.DeletedAt = &deletedAt
		space.UpdatedAt = ts
		space.LastWriterDevice = deviceID

		if err := ds.UpdateSpace(ctx, space, ts); err != nil {
			if errors.Is(err, storage.ErrStaleWrite) {
				return Result{Conflict: true}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil
	}

	return Result{}, false, fmt.Errorf("%w: %q", ErrInvalidChange, ch.Operation)
}

func (a *Applier) applyCategory(ctx context.Context, ds storage.DataStore, ownerID, deviceID string,
	ch api.Change, op models.Operation, ts time.Time) (Result, bool, error) {
	switch op {
	case models.OperationCreate:
		_, err := ds.GetCategory(ctx, ownerID, ch.ID)
		if err == nil {
			return Result{}, false, nil
		}
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return Result{}, false, err
		}

		var patch models.CategoryPatch
		if err := decodePatch(ch.Data, &patch); err != nil {
			return Result{}, false, err
		}
		if !patch.Name.Valid || patch.Name.Value == "" {
			return Result{}, false, fmt.Errorf("%w: category name is required", ErrInvalidChange)
		}

		category := &models.Category{
			ID:               ch.ID,
			OwnerID:          ownerID,
			Icon:             models.DefaultCategoryIcon,
			Color:            models.DefaultCategoryColor,
			Visible:          true,
			LastWriterDevice: deviceID,
			CreatedAt:        ts,
			UpdatedAt:        ts,
		}
		patch.Apply(category)

		if patch.SpaceID.Set {
			category.SpaceID, err = resolveSpaceRef(ctx, ds, ownerID, patch.SpaceID)
			if err != nil {
				return Result{}, false, err
			}
		}

		if err := ds.InsertCategory(ctx, category); err != nil {
			if errors.Is(err, storage.ErrEntityExists) {
				return Result{}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil

	case models.OperationUpdate:
		category, err := ds.GetCategory(ctx, ownerID, ch.ID)
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return Result{}, false, fmt.Errorf("%w: category %q", ErrNotFound, ch.ID)
			}
			return Result{}, false, err
		}
		if !IncomingWins(ts, category.UpdatedAt) {
			return Result{Conflict: true}, false, nil
		}

		var patch models.CategoryPatch
		if err := decodePatch(ch.Data, &patch); err != nil {
			return Result{}, false, err
		}
		patch.Apply(category)

		if patch.SpaceID.Set {
			category.SpaceID, err = resolveSpaceRef(ctx, ds, ownerID, patch.SpaceID)
			if err != nil {
				return Result{}, false, err
			}
		}

		category.UpdatedAt = ts
		category.LastWriterDevice = deviceID

		if err := ds.UpdateCategory(ctx, category, ts); err != nil {
			if errors.Is(err, storage.ErrStaleWrite) {
				return Result{Conflict: true}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil

	case models.OperationDelete:
		category, err := ds.GetCategory(ctx, ownerID, ch.ID)
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return Result{}, false, nil
			}
			return Result{}, false, err
		}
		if category.Deleted() {
			return Result{}, false, nil
		}
		if !IncomingWins(ts, category.UpdatedAt) {
			return Result{Conflict: true}, false, nil
		}

		deletedAt := ts
		category.DeletedAt = &deletedAt
		category.UpdatedAt = ts
		category.LastWriterDevice = deviceID

		if err := ds.UpdateCategory(ctx, category, ts); err != nil {
			if errors.Is(err, storage.ErrStaleWrite) {
				return Result{Conflict: true}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil
	}

	return Result{}, false, fmt.Errorf("%w: %q", ErrInvalidChange, ch.Operation)
}

func (a *Applier) applyItem(ctx context.Context, ds storage.DataStore, ownerID, deviceID string,
	ch api.Change, op models.Operation, ts time.Time) (Result, bool, error) {
	switch op {
	case models.OperationCreate:
		_, err := ds.GetItem(ctx, ownerID, ch.ID)
		if err == nil {
			return Result{}, false, nil
		}
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return Result{}, false, err
		}

		patch, err := decodeItemPatch(ch.Data)
		if err != nil {
			return Result{}, false, err
		}
		if !patch.Title.Valid || patch.Title.Value == "" {
			return Result{}, false, fmt.Errorf("%w: item title is required", ErrInvalidChange)
		}

		item := &models.Item{
			ID:               ch.ID,
			OwnerID:          ownerID,
			Priority:         models.PriorityMedium,
			Tags:             []string{},
			LastWriterDevice: deviceID,
			CreatedAt:        ts,
			UpdatedAt:        ts,
		}
		patch.Apply(item, ts)

		if patch.SpaceID.Set {
			item.SpaceID, err = resolveSpaceRef(ctx, ds, ownerID, patch.SpaceID)
			if err != nil {
				return Result{}, false, err
			}
		}
		if patch.CategoryID.Set {
			item.CategoryID, err = resolveCategoryRef(ctx, ds, ownerID, patch.CategoryID)
			if err != nil {
				return Result{}, false, err
			}
		}

		if err := ds.InsertItem(ctx, item); err != nil {
			if errors.Is(err, storage.ErrEntityExists) {
				return Result{}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil

	case models.OperationUpdate:
		item, err := ds.GetItem(ctx, ownerID, ch.ID)
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return Result{}, false, fmt.Errorf("%w: item %q", ErrNotFound, ch.ID)
			}
			return Result{}, false, err
		}
		if !IncomingWins(ts, item.UpdatedAt) {
			return Result{Conflict: true}, false, nil
		}

		patch, err := decodeItemPatch(ch.Data)
		if err != nil {
			return Result{}, false, err
		}
		patch.Apply(item, ts)

		if patch.SpaceID.Set {
			item.SpaceID, err = resolveSpaceRef(ctx, ds, ownerID, patch.SpaceID)
			if err != nil {
				return Result{}, false, err
			}
		}
		if patch.CategoryID.Set {
			item.CategoryID, err = resolveCategoryRef(ctx, ds, ownerID, patch.CategoryID)
			if err != nil {
				return Result{}, false, err
			}
		}

		item.UpdatedAt = ts
		item.LastWriterDevice = deviceID

		if err := ds.UpdateItem(ctx, item, ts); err != nil {
			if errors.Is(err, storage.ErrStaleWrite) {
				return Result{Conflict: true}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil

	case models.OperationDelete:
		item, err := ds.GetItem(ctx, ownerID, ch.ID)
		if err != nil {
			if errors.Is(err, storage.ErrEntityNotFound) {
				return Result{}, false, nil
			}
			return Result{}, false, err
		}
		if item.Deleted() {
			return Result{}, false, nil
		}
		if !IncomingWins(ts, item.UpdatedAt) {
			return Result{Conflict: true}, false, nil
		}

		deletedAt := ts
		item.DeletedAt = &deletedAt
		item.UpdatedAt = ts
		item.LastWriterDevice = deviceID

		if err := ds.UpdateItem(ctx, item, ts); err != nil {
			if errors.Is(err, storage.ErrStaleWrite) {
				return Result{Conflict: true}, false, nil
			}
			return Result{}, false, err
		}
		return Result{}, true, nil
	}

	return Result{}, false, fmt.Errorf("%w: %q", ErrInvalidChange, ch.Operation)
}

// decodePatch unmarshals a change payload into a typed patch. A nil
// payload decodes to an empty patch.
func decodePatch(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChange, err)
	}
	return nil
}

// decodeItemPatch additionally validates the priority enum.
func decodeItemPatch(data json.RawMessage) (*models.ItemPatch, error) {
	patch := &models.ItemPatch{}
	if err := decodePatch(data, patch); err != nil {
		return nil, err
	}
	if patch.Priority.Valid && !models.ValidPriority(patch.Priority.Value) {
		return nil, fmt.Errorf("%w: priority %q", ErrInvalidChange, patch.Priority.Value)
	}
	return patch, nil
}
