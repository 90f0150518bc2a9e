package models

import "time"

// ActivityLog is one entry of the per-user action trail shown on the admin
// page (logins, registrations, moderation actions, content writes).
type ActivityLog struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}
