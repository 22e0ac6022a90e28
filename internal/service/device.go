package service

import (
	"context"
	"strings"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
	"github.com/teamgrid/messaging-platform/internal/store"
)

// DeviceService registers and deactivates push endpoints.
type DeviceService struct {
	store *store.Store
}

// NewDeviceService creates the device registry.
func NewDeviceService(st *store.Store) *DeviceService {
	return &DeviceService{store: st}
}

// Register records or reactivates a push endpoint for the caller. A token
// registered by another user is reassigned.
func (s *DeviceService) Register(ctx context.Context, userID int64, req *model.RegisterDeviceRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return apperr.InvalidArgument("device token must not be blank")
	}
	if !req.Class.Valid() {
		return apperr.InvalidArgument("unknown device class")
	}
	return s.store.UpsertDevice(ctx, userID, req.Token, req.Class)
}

// Deactivate turns off one of the caller's push endpoints.
func (s *DeviceService) Deactivate(ctx context.Context, userID int64, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperr.InvalidArgument("device token must not be blank")
	}
	return s.store.DeactivateDevice(ctx, userID, token)
}
