package services

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/haneul-academy/portal-be/internal/apperr"
	"github.com/haneul-academy/portal-be/internal/models"
)

// ModerationServiceProvider defines the interface for the ban registry.
type ModerationServiceProvider interface {
	Ban(actor models.Identity, username, reason string) error
	Unban(actor models.Identity, username string) error
	IsBanned(username string) bool
	BanReason(username string) (string, bool)
	ListBans() ([]models.Ban, error)
}

// ModerationService tracks kicked users and blocks their re-entry.
type ModerationService struct {
	db          *sql.DB
	activitySvc ActivityServiceProvider
}

// NewModerationService creates a new ModerationService.
func NewModerationService(db *sql.DB, activitySvc ActivityServiceProvider) *ModerationService {
	return &ModerationService{db: db, activitySvc: activitySvc}
}

// Ban records a ban and deactivates the account. The account row is kept so
// the user's content stays attributable. Banning yourself is an explicit
// error; banning an already banned user is a no-op thanks to the UNIQUE
// constraint on bans.username.
func (s *ModerationService) Ban(actor models.Identity, username, reason string) error {
	if actor.Username == username {
		return apperr.ErrSelfActionDenied
	}

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM users WHERE username = ?", username).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return apperr.ErrUnknownUser
	}

	_, err := s.db.Exec("INSERT INTO bans(id, username, reason, banned_by) VALUES(?, ?, ?, ?)",
		uuid.New().String(), username, reason, actor.Username)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil // already banned
		}
		return err
	}

	if _, err := s.db.Exec("UPDATE users SET active = 0 WHERE username = ?", username); err != nil {
		return err
	}

	s.activitySvc.Record(actor.Username, "ban:"+username)
	return nil
}

// Unban removes the ban record and reactivates the account.
func (s *ModerationService) Unban(actor models.Identity, username string) error {
	res, err := s.db.Exec("DELETE FROM bans WHERE username = ?", username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperr.NotFoundError{Kind: "ban", ID: username}
	}

	if _, err := s.db.Exec("UPDATE users SET active = 1 WHERE username = ?", username); err != nil {
		return err
	}

	s.activitySvc.Record(actor.Username, "unban:"+username)
	return nil
}

// IsBanned reports whether the username has an active ban.
func (s *ModerationService) IsBanned(username string) bool {
	_, banned := s.BanReason(username)
	return banned
}

// BanReason returns the recorded reason for an active ban.
func (s *ModerationService) BanReason(username string) (string, bool) {
	var reason string
	err := s.db.QueryRow("SELECT reason FROM bans WHERE username = ?", username).Scan(&reason)
	if err != nil {
		return "", false
	}
	return reason, true
}

// ListBans returns all active bans, most recent first.
func (s *ModerationService) ListBans() ([]models.Ban, error) {
	rows, err := s.db.Query("SELECT id, username, reason, banned_by, created_at FROM bans ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bans []models.Ban
	for rows.Next() {
		var ban models.Ban
		if err := rows.Scan(&ban.ID, &ban.Username, &ban.Reason, &ban.BannedBy, &ban.CreatedAt); err != nil {
			return nil, err
		}
		bans = append(bans, ban)
	}
	return bans, rows.Err()
}
