package model

import "time"

// DeviceClass tags a push endpoint with its delivery surface.
type DeviceClass string

const (
	DeviceDesktopApp DeviceClass = "desktop_app"
	DeviceWeb        DeviceClass = "web"
	DeviceMobile     DeviceClass = "mobile"
)

// Valid reports whether c is a known device class.
func (c DeviceClass) Valid() bool {
	return c == DeviceDesktopApp || c == DeviceWeb || c == DeviceMobile
}

// Device is an active push-delivery endpoint for a user.
type Device struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Token     string      `json:"token"`
	Class     DeviceClass `json:"class"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// RegisterDeviceRequest registers or reactivates a push endpoint.
type RegisterDeviceRequest struct {
	Token string      `json:"token"`
	Class DeviceClass `json:"class"`
}
