package model

import "time"

// Profile is the display record mirroring an identity-provider account.
// Email is fixed at creation; only Name changes afterwards.
type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
