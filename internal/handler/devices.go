package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamgrid/messaging-platform/internal/middleware"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/service"
)

// DeviceHandler handles push-endpoint registration.
type DeviceHandler struct {
	devices *service.DeviceService
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(d *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{devices: d}
}

// Register handles POST /api/v1/devices
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.devices.Register(r.Context(), userID, &req); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deactivate handles DELETE /api/v1/devices/{token}
func (h *DeviceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	token := chi.URLParam(r, "token")

	if err := h.devices.Deactivate(r.Context(), userID, token); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
