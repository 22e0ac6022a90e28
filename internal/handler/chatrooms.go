package handler

import (
	"encoding/json"
	"net/http"

	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/service"
)

// ChatroomHandler handles direct-chatroom endpoints.
type ChatroomHandler struct {
	chatrooms *service.ChatroomService
}

// NewChatroomHandler creates a new chatroom handler.
func NewChatroomHandler(c *service.ChatroomService) *ChatroomHandler {
	return &ChatroomHandler{chatrooms: c}
}

// Open handles POST /api/v1/chatrooms
func (h *ChatroomHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.CreateChatroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.chatrooms.Open(r.Context(), userID, &req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// List handles GET /api/v1/chatrooms
func (h *ChatroomHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	workspaceID, err := queryID(r, "workspace_id")
	if err != nil {
		respondError(w, err)
		return
	}

	views, err := h.chatrooms.List(r.Context(), userID, workspaceID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chatrooms": views})
}

// Hide handles POST /api/v1/chatrooms/{conversationID}/hide
func (h *ChatroomHandler) Hide(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.chatrooms.Hide(r.Context(), userID, conversationID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
