package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	syncsvc "github.com/iudanet/listsync/internal/server/sync"
	"github.com/iudanet/listsync/pkg/api"
)

// contextKey is the type for request context keys.
type contextKey string

const (
	// UserIDKey holds the authenticated user id in the request context.
	UserIDKey contextKey = "user_id"
	// UsernameKey holds the authenticated username in the request context.
	UsernameKey contextKey = "username"
)

// GetUserID extracts the authenticated user id from the context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUsername extracts the authenticated username from the context.
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// SyncService is what the sync endpoints need from the engine.
type SyncService interface {
	Sync(ctx context.Context, ownerID string, req *api.SyncRequest) (*api.SyncResponse, error)
	InitialLoad(ctx context.Context, ownerID string) (*api.InitialLoadResponse, error)
}

// SyncHandler serves the synchronization endpoints.
type SyncHandler struct {
	logger  *slog.Logger
	service SyncService
}

// NewSyncHandler creates the sync handler.
func NewSyncHandler(logger *slog.Logger, service SyncService) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		service: service,
	}
}

// HandleSync handles POST /api/v1/sync.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.logger.Error("user id not found in context")
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sync request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Sync(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, syncsvc.ErrMissingDevice) {
			h.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "sync failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// HandleInitialLoad handles GET /api/v1/sync/initial.
func (h *SyncHandler) HandleInitialLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.logger.Error("user id not found in context")
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resp, err := h.service.InitialLoad(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "initial load failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, resp, http.StatusOK)
}

func (h *SyncHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func (h *SyncHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}
