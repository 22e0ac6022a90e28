package handler

import (
	"encoding/json"
	"net/http"

	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/service"
)

// ReadStateHandler handles read-cursor endpoints.
type ReadStateHandler struct {
	readstates *service.ReadStateService
}

// NewReadStateHandler creates a new read-state handler.
func NewReadStateHandler(rs *service.ReadStateService) *ReadStateHandler {
	return &ReadStateHandler{readstates: rs}
}

// Advance handles PUT /api/v1/conversations/{conversationID}/read-state
func (h *ReadStateHandler) Advance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req model.UpdateReadStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.readstates.Advance(r.Context(), userID, conversationID, &req); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnreadCount handles GET /api/v1/conversations/{conversationID}/unread-count
func (h *ReadStateHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.readstates.Unread(r.Context(), userID, conversationID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
