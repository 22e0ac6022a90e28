package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teamgrid/messaging-platform/internal/hub"
	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/service"
	"github.com/teamgrid/messaging-platform/pkg/logger"
	"github.com/teamgrid/messaging-platform/pkg/metrics"
)

// connBuffer is the per-connection event buffer. A client that falls this
// far behind starts losing envelopes and must resync over the REST surface.
const connBuffer = 64

// heartbeatInterval keeps intermediaries from closing idle streams.
const heartbeatInterval = 30 * time.Second

// StreamHandler serves the live SSE connection.
type StreamHandler struct {
	conversations *service.ConversationService
	hub           *hub.Hub
	logger        *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(conversations *service.ConversationService, h *hub.Hub, log *logger.Logger) *StreamHandler {
	return &StreamHandler{conversations: conversations, hub: h, logger: log}
}

// Stream handles GET /api/v1/stream?conversations=1,2,3
//
// The connection is bound to the authenticated user at establishment. The
// user's private queue is always subscribed; the conversations parameter
// adds conversation topics, each access-checked before registration.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	topics := []string{model.UserTopic(userID)}
	if raw := r.URL.Query().Get("conversations"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			conversationID, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || conversationID <= 0 {
				writeError(w, http.StatusBadRequest, "invalid conversations parameter")
				return
			}
			conv, err := h.conversations.Get(ctx, userID, conversationID)
			if err != nil {
				respondError(w, err)
				return
			}
			topics = append(topics, conv.Ref().Topic())
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The server write timeout would sever a healthy stream once it elapses;
	// clear the deadline for this response only.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	conn := hub.NewConn(userID, connBuffer)
	for _, topic := range topics {
		h.hub.Subscribe(conn, topic)
	}
	defer h.hub.Drop(conn)

	metrics.IncrementLiveConnections()
	defer metrics.DecrementLiveConnections()

	sendSSEEvent(w, flusher, "connected", map[string]interface{}{
		"user_id": userID,
		"topics":  topics,
	})

	h.logger.Info("live connection established",
		zap.Int64("user_id", userID),
		zap.Int("topics", len(topics)))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("live connection closed", zap.Int64("user_id", userID))
			return

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", map[string]time.Time{
				"timestamp": time.Now().UTC(),
			})

		case env, ok := <-conn.Events:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, strings.ToLower(string(env.Type)), env)
		}
	}
}

// sendSSEEvent writes one server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
