package handler

import (
	"net/http"

	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/service"
)

// MentionHandler handles mention read-state endpoints.
type MentionHandler struct {
	mentions *service.MentionService
}

// NewMentionHandler creates a new mention handler.
func NewMentionHandler(m *service.MentionService) *MentionHandler {
	return &MentionHandler{mentions: m}
}

// ListUnread handles GET /api/v1/mentions/unread
func (h *MentionHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	mentions, err := h.mentions.ListUnread(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mentions": mentions})
}

// MarkRead handles POST /api/v1/mentions/{mentionID}/read
func (h *MentionHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	mentionID, err := idParam(r, "mentionID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.mentions.MarkRead(r.Context(), userID, mentionID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/mentions/read-all
func (h *MentionHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	resp, err := h.mentions.MarkAllRead(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
