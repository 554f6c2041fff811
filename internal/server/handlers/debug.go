package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/iudanet/listsync/internal/server/storage"
	syncsvc "github.com/iudanet/listsync/internal/server/sync"
	"github.com/iudanet/listsync/pkg/api"
)

// DebugStore is the read-only storage surface of the debug endpoints.
type DebugStore interface {
	storage.SpaceStore
	storage.CategoryStore
	storage.ItemStore
	storage.DeviceStore
	storage.StatsStore
}

// DebugHandler serves read-only inspection endpoints under
// /api/v1/debug. All data is scoped to the authenticated account;
// tombstoned entities are not shown.
type DebugHandler struct {
	logger *slog.Logger
	store  DebugStore
}

// NewDebugHandler creates the debug handler.
func NewDebugHandler(logger *slog.Logger, store DebugStore) *DebugHandler {
	return &DebugHandler{
		logger: logger,
		store:  store,
	}
}

// ListSpaces handles GET /api/v1/debug/spaces.
func (h *DebugHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	spaces, err := h.store.ListActiveSpaces(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list spaces", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := struct {
		Spaces []api.Space `json:"spaces"`
		Count  int         `json:"count"`
	}{
		Spaces: syncsvc.SpacesToAPI(spaces),
		Count:  len(spaces),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// ListCategories handles GET /api/v1/debug/categories?spaceId=...
func (h *DebugHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var spaceID *string
	if v := r.URL.Query().Get("spaceId"); v != "" {
		spaceID = &v
	}

	categories, err := h.store.ListActiveCategories(ctx, userID, spaceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := struct {
		Categories []api.Category `json:"categories"`
		Count      int            `json:"count"`
	}{
		Categories: syncsvc.CategoriesToAPI(categories),
		Count:      len(categories),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// ListItems handles GET /api/v1/debug/items with optional spaceId,
// categoryId and completed filters.
func (h *DebugHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var filter storage.ItemFilter

	if v := r.URL.Query().Get("spaceId"); v != "" {
		filter.SpaceID = &v
	}
	if v := r.URL.Query().Get("categoryId"); v != "" {
		filter.CategoryID = &v
	}
	if v := r.URL.Query().Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			h.sendError(w, "invalid completed parameter", http.StatusBadRequest)
			return
		}
		filter.Completed = &completed
	}

	items, err := h.store.ListActiveItems(ctx, userID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list items", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := struct {
		Items []api.Item `json:"items"`
		Count int        `json:"count"`
	}{
		Items: syncsvc.ItemsToAPI(items),
		Count: len(items),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// ListDevices handles GET /api/v1/debug/devices.
func (h *DebugHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	devices, err := h.store.ListDevices(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list devices", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := struct {
		Devices []api.Device `json:"devices"`
		Count   int          `json:"count"`
	}{
		Devices: syncsvc.DevicesToAPI(devices),
		Count:   len(devices),
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// StatsResponse is the body of the usage stats endpoint.
type StatsResponse struct {
	SpacesTotal      int `json:"spacesTotal"`
	SpacesActive     int `json:"spacesActive"`
	CategoriesTotal  int `json:"categoriesTotal"`
	CategoriesActive int `json:"categoriesActive"`
	ItemsTotal       int `json:"itemsTotal"`
	ItemsActive      int `json:"itemsActive"`
	ItemsCompleted   int `json:"itemsCompleted"`
}

// Stats handles GET /api/v1/debug/stats.
func (h *DebugHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.store.Stats(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute stats", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		SpacesTotal:      stats.SpacesTotal,
		SpacesActive:     stats.SpacesActive,
		CategoriesTotal:  stats.CategoriesTotal,
		CategoriesActive: stats.CategoriesActive,
		ItemsTotal:       stats.ItemsTotal,
		ItemsActive:      stats.ItemsActive,
		ItemsCompleted:   stats.ItemsCompleted,
	}

	h.sendJSON(w, resp, http.StatusOK)
}

func (h *DebugHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func (h *DebugHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}
