package handler

import (
	"net/http"

	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/service"
)

// NotificationHandler handles notification endpoints. Every route takes a
// workspace_id query parameter: notifications are workspace-scoped.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(n *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: n}
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	workspaceID, err := queryID(r, "workspace_id")
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.notifications.List(r.Context(), userID, workspaceID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListUnread handles GET /api/v1/notifications/unread
func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	workspaceID, err := queryID(r, "workspace_id")
	if err != nil {
		respondError(w, err)
		return
	}

	notifications, err := h.notifications.ListUnread(r.Context(), userID, workspaceID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// UnreadCount handles GET /api/v1/notifications/unread-count. The count is
// taken within the latest notification page, matching List.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	workspaceID, err := queryID(r, "workspace_id")
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.notifications.List(r.Context(), userID, workspaceID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": resp.UnreadCount})
}

// MarkRead handles POST /api/v1/notifications/{notificationID}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	notificationID, err := idParam(r, "notificationID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, notificationID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	workspaceID, err := queryID(r, "workspace_id")
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.notifications.MarkAllRead(r.Context(), userID, workspaceID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
