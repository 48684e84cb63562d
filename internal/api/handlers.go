package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fubuki/internal/apperr"
	"github.com/starford/fubuki/internal/settings"
	"github.com/starford/fubuki/internal/store"
	"github.com/starford/fubuki/internal/tracker"
)

// Tracker is the part of the tracker engine the API drives.
type Tracker interface {
	Status(ctx context.Context) (tracker.Status, error)
	Cancel(ctx context.Context, mediaID int) error
	Refresh(ctx context.Context) error
}

// History reads past update outcomes.
type History interface {
	History(ctx context.Context, limit int) ([]store.UpdateRecord, error)
}

// Handler holds API route handlers.
type Handler struct {
	tracker  Tracker
	history  History
	settings *settings.Settings
}

// NewHandler creates a new Handler. history may be nil when persistence is
// disabled.
func NewHandler(t Tracker, history History, s *settings.Settings) *Handler {
	return &Handler{tracker: t, history: history, settings: s}
}

// Status handles GET /api/status.
//
//	@Summary		Current recognition, match and queue
//	@Tags			tracker
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	s, err := h.tracker.Status(r.Context())
	if err != nil {
		slog.Error("api: status failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("tracker unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: s, Ready: s.Ready(), Settings: h.settings.View()})
}

// Queue handles GET /api/queue.
//
//	@Summary		List pending updates
//	@Tags			queue
//	@Produce		json
//	@Success		200	{object}	QueueResponse
//	@Security		BearerAuth
//	@Router			/queue [get]
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	s, err := h.tracker.Status(r.Context())
	if err != nil {
		slog.Error("api: queue failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("tracker unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, QueueResponse{Items: s.Queue, InFlight: s.InFlight})
}

// CancelUpdate handles DELETE /api/queue/{mediaID}.
//
//	@Summary		Cancel a pending update
//	@Tags			queue
//	@Param			mediaID	path	int	true	"Media id"
//	@Success		204		"Update cancelled"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/queue/{mediaID} [delete]
func (h *Handler) CancelUpdate(w http.ResponseWriter, r *http.Request) {
	mediaID, err := strconv.Atoi(chi.URLParam(r, "mediaID"))
	if err != nil || mediaID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("mediaID must be a positive integer"))
		return
	}
	if err := h.tracker.Cancel(r.Context(), mediaID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no pending update for media"))
		} else {
			slog.Error("api: cancel failed", slog.Int("media_id", mediaID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, errorBody("tracker unavailable"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshLists handles POST /api/lists/refresh.
//
//	@Summary		Refetch the viewer's lists
//	@Tags			lists
//	@Success		202	"Refresh started"
//	@Security		BearerAuth
//	@Router			/lists/refresh [post]
func (h *Handler) RefreshLists(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Refresh(r.Context()); err != nil {
		slog.Error("api: refresh failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("tracker unavailable"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

// History handles GET /api/history.
//
//	@Summary		Recent update outcomes
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int	false	"Max records"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Records: []store.UpdateRecord{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.history.History(r.Context(), limit)
	if err != nil {
		slog.Error("api: history failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if records == nil {
		records = []store.UpdateRecord{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Records: records})
}

// UpdateSettings handles PUT /api/settings.
//
//	@Summary		Change runtime settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SettingsRequest	true	"Settings to change"
//	@Success		200		{object}	settings.View
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if req.UpdateDelaySeconds != nil {
		if err := h.settings.SetUpdateDelay(*req.UpdateDelaySeconds); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
	}
	if req.Token != nil {
		h.settings.SetToken(*req.Token)
	}
	slog.Info("api: settings updated", slog.Int("update_delay_seconds", h.settings.View().UpdateDelaySeconds))
	writeJSON(w, http.StatusOK, h.settings.View())
}
