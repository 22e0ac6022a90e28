package handler

import (
	"encoding/json"
	"net/http"

	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/service"
	"github.com/teamgrid/messaging-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: log}
}

// Send handles POST /api/v1/conversations/{conversationID}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.messages.Send(r.Context(), userID, conversationID, &req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// List handles GET /api/v1/conversations/{conversationID}/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := idParam(r, "conversationID")
	if err != nil {
		respondError(w, err)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)
	resp, err := h.messages.List(r.Context(), userID, conversationID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/messages/{messageID}
func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := idParam(r, "messageID")
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.messages.Get(r.Context(), userID, messageID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Replies handles GET /api/v1/messages/{messageID}/replies
func (h *MessageHandler) Replies(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := idParam(r, "messageID")
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.messages.ListThread(r.Context(), userID, messageID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Edit handles PUT /api/v1/messages/{messageID}
func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := idParam(r, "messageID")
	if err != nil {
		respondError(w, err)
		return
	}

	var req model.UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.messages.Edit(r.Context(), userID, messageID, &req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /api/v1/messages/{messageID}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := idParam(r, "messageID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.messages.Delete(r.Context(), userID, messageID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
