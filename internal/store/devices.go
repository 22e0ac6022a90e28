package store

import (
	"context"
	"fmt"
	"time"

	"github.com/teamgrid/messaging-platform/internal/apperr"
	"github.com/teamgrid/messaging-platform/internal/model"
)

// UpsertDevice registers a push endpoint. Re-registering an existing token
// reassigns it to the user and reactivates it.
func (s *Store) UpsertDevice(ctx context.Context, userID int64, token string, class model.DeviceClass) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_devices (user_id, device_token, device_class, is_active, created_at)
         VALUES (?, ?, ?, TRUE, ?)
         ON CONFLICT (device_token) DO UPDATE SET
             user_id = excluded.user_id,
             device_class = excluded.device_class,
             is_active = TRUE`,
		userID, token, string(class), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}

// DeactivateDevice turns off a push endpoint owned by the user.
func (s *Store) DeactivateDevice(ctx context.Context, userID int64, token string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE user_devices SET is_active = FALSE WHERE user_id = ? AND device_token = ?",
		userID, token)
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("device")
	}
	return nil
}

// ActiveDevices returns a user's active push endpoints.
func (s *Store) ActiveDevices(ctx context.Context, userID int64) ([]model.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, device_token, device_class, is_active, created_at
         FROM user_devices WHERE user_id = ? AND is_active = TRUE ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var out []model.Device
	for rows.Next() {
		var d model.Device
		var class string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &class, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		d.Class = model.DeviceClass(class)
		out = append(out, d)
	}
	return out, rows.Err()
}
