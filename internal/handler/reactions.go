package handler

import (
	"encoding/json"
	"net/http"

	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/service"
)

// ReactionHandler handles reaction endpoints.
type ReactionHandler struct {
	reactions *service.ReactionService
}

// NewReactionHandler creates a new reaction handler.
func NewReactionHandler(rs *service.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: rs}
}

// Add handles POST /api/v1/messages/{messageID}/reactions
func (h *ReactionHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := idParam(r, "messageID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req model.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.reactions.Add(r.Context(), userID, messageID, req.Emoji); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /api/v1/messages/{messageID}/reactions?emoji=
func (h *ReactionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := idParam(r, "messageID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.reactions.Remove(r.Context(), userID, messageID, r.URL.Query().Get("emoji")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
