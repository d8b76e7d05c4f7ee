package notification

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the notification directory
type Handler struct {
	repo Repository
}

// NewHandler creates a new notification handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the notification routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/recipient/{recipientID}", func(r chi.Router) {
		r.Get("/", h.ListByRecipient)
		r.Get("/unread", h.ListUnread)
		r.Get("/unread/count", h.UnreadCount)
		r.Post("/read-all", h.MarkAllRead)
	})

	r.Route("/{notificationID}", func(r chi.Router) {
		r.Post("/read", h.MarkRead)
		r.Delete("/", h.Delete)
	})

	return r
}

// ListByRecipient lists notifications for a recipient, newest first
func (h *Handler) ListByRecipient(w http.ResponseWriter, r *http.Request) {
	recipientID, err := types.ParseID(chi.URLParam(r, "recipientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid recipient ID"))
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	notifications, err := h.repo.GetByRecipient(r.Context(), recipientID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": notifications})
}

// ListUnread lists unread notifications for a recipient
func (h *Handler) ListUnread(w http.ResponseWriter, r *http.Request) {
	recipientID, err := types.ParseID(chi.URLParam(r, "recipientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid recipient ID"))
		return
	}

	notifications, err := h.repo.GetUnreadByRecipient(r.Context(), recipientID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": notifications})
}

// UnreadCount returns the number of unread notifications
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	recipientID, err := types.ParseID(chi.URLParam(r, "recipientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid recipient ID"))
		return
	}

	count, err := h.repo.GetUnreadCount(r.Context(), recipientID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// MarkRead marks one notification as read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid notification ID"))
		return
	}

	n, err := h.repo.MarkAsRead(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, n)
}

// MarkAllRead marks all notifications for a recipient as read
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	recipientID, err := types.ParseID(chi.URLParam(r, "recipientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid recipient ID"))
		return
	}

	if err := h.repo.MarkAllAsRead(r.Context(), recipientID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Delete removes a notification
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid notification ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
