package services

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/haneul-academy/portal-be/internal/models"
)

// ActivityServiceProvider defines the interface for the user action trail.
type ActivityServiceProvider interface {
	Record(username, action string)
	Recent(limit int) ([]models.ActivityLog, error)
	Prune(keep int) error
}

// ActivityService persists the per-user action log shown on the admin page.
type ActivityService struct {
	db *sql.DB
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *sql.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Record appends one entry to the trail. Logging must never fail a user
// action, so errors are logged and swallowed.
func (s *ActivityService) Record(username, action string) {
	_, err := s.db.Exec("INSERT INTO activity_logs(id, username, action) VALUES(?, ?, ?)",
		uuid.New().String(), username, action)
	if err != nil {
		log.Error().Err(err).Str("username", username).Str("action", action).Msg("Failed to record activity")
	}
}

// Recent returns the most recent entries, newest first.
func (s *ActivityService) Recent(limit int) ([]models.ActivityLog, error) {
	rows, err := s.db.Query("SELECT id, username, action, created_at FROM activity_logs ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		var entry models.ActivityLog
		if err := rows.Scan(&entry.ID, &entry.Username, &entry.Action, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// Prune drops everything older than the newest keep entries.
func (s *ActivityService) Prune(keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM activity_logs WHERE id NOT IN (
			SELECT id FROM activity_logs ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	return err
}
