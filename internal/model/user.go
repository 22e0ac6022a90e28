package model

import "time"

// User carries the display fields this core needs. Account lifecycle is
// owned elsewhere.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
