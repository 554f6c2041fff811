package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/listsync/internal/models"
	"github.com/iudanet/listsync/internal/server/storage"
	"github.com/iudanet/listsync/pkg/api"
)

// Service orchestrates a sync round: device registration, change
// application, delta computation. One instance serves all accounts.
type Service struct {
	store   storage.SyncStore
	applier *Applier
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the sync service backed by store.
func NewService(store storage.SyncStore, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		applier: NewApplier(logger),
		logger:  logger,
		now:     time.Now,
	}
}

// Sync processes one round for the account: registers the calling
// device, applies each submitted change in order, then computes the
// delta of everything (tombstones included) the account has seen since
// lastSyncTimestamp. Per-change failures are folded into their acks;
// only storage faults surface as an error.
func (s *Service) Sync(ctx context.Context, ownerID string, req *api.SyncRequest) (*api.SyncResponse, error) {
	if req.DeviceID == "" {
		return nil, ErrMissingDevice
	}

	now := s.clock()

	device := &models.Device{
		OwnerID:     ownerID,
		DeviceID:    req.DeviceID,
		DisplayName: req.DeviceName,
		LastSyncAt:  now,
		CreatedAt:   now,
	}
	if err := s.store.UpsertDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}

	acks := make([]api.ChangeAck, 0, len(req.Changes))

	for _, ch := range req.Changes {
		ts := now
		if ch.Timestamp != nil {
			ts = ch.Timestamp.UTC().Truncate(time.Millisecond)
		}

		// Each change gets its own transaction so the entity write
		// and the log append land together, and a failed change
		// leaves its siblings untouched.
		var res Result
		err := s.store.WithinTx(ctx, func(ds storage.DataStore) error {
			var err error
			res, err = s.applier.Apply(ctx, ds, ownerID, req.DeviceID, ch, ts)
			return err
		})

		ack := api.ChangeAck{
			ID:         ch.ID,
			EntityKind: ch.EntityKind,
			Operation:  ch.Operation,
		}

		switch {
		case err == nil:
			ack.Success = true
			ack.Conflict = res.Conflict
			ack.Duplicate = res.Duplicate
		case IsChangeError(err):
			ack.Error = err.Error()
			s.logger.WarnContext(ctx, "change rejected",
				slog.String("entity_id", ch.ID),
				slog.String("entity_kind", ch.EntityKind),
				slog.String("operation", ch.Operation),
				slog.String("error", err.Error()))
		default:
			return nil, fmt.Errorf("failed to apply change %s: %w", ch.ID, err)
		}

		acks = append(acks, ack)
	}

	var since time.Time
	if req.LastSyncTimestamp != nil {
		since = req.LastSyncTimestamp.UTC()
	}

	spaces, err := s.store.ListSpacesSince(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute space delta: %w", err)
	}
	categories, err := s.store.ListCategoriesSince(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category delta: %w", err)
	}
	items, err := s.store.ListItemsSince(ctx, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute item delta: %w", err)
	}

	// The returned syncTimestamp must cover every row in the delta,
	// or the client would re-receive rows whose timestamps are ahead
	// of the server clock on its next call.
	syncTS := now
	for _, sp := range spaces {
		if sp.UpdatedAt.After(syncTS) {
			syncTS = sp.UpdatedAt
		}
	}
	for _, c := range categories {
		if c.UpdatedAt.After(syncTS) {
			syncTS = c.UpdatedAt
		}
	}
	for _, i := range items {
		if i.UpdatedAt.After(syncTS) {
			syncTS = i.UpdatedAt
		}
	}

	s.logger.InfoContext(ctx, "sync round complete",
		slog.String("device_id", req.DeviceID),
		slog.Int("changes", len(req.Changes)),
		slog.Int("delta_spaces", len(spaces)),
		slog.Int("delta_categories", len(categories)),
		slog.Int("delta_items", len(items)))

	return &api.SyncResponse{
		SyncTimestamp:    syncTS,
		Acknowledgements: acks,
		ServerUpdates: api.ServerUpdates{
			Spaces:     SpacesToAPI(spaces),
			Categories: CategoriesToAPI(categories),
			Items:      ItemsToAPI(items),
		},
	}, nil
}

// InitialLoad returns the full live dataset for a fresh device.
// Tombstones are excluded: a device with no local state has nothing to
// delete.
func (s *Service) InitialLoad(ctx context.Context, ownerID string) (*api.InitialLoadResponse, error) {
	spaces, err := s.store.ListActiveSpaces(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load spaces: %w", err)
	}
	categories, err := s.store.ListActiveCategories(ctx, ownerID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	items, err := s.store.ListActiveItems(ctx, ownerID, storage.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	return &api.InitialLoadResponse{
		SyncTimestamp: s.clock(),
		Spaces:        SpacesToAPI(spaces),
		Categories:    CategoriesToAPI(categories),
		Items:         ItemsToAPI(items),
	}, nil
}

// clock returns the current server time at storage resolution.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
