package models

import "time"

// Ban records a kicked user. At most one active ban exists per username;
// the registry is consulted before any credential check at login.
type Ban struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"`
	BannedBy  string    `json:"bannedBy"`
	CreatedAt time.Time `json:"createdAt"`
}
