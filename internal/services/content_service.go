package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/haneul-academy/portal-be/internal/apperr"
	"github.com/haneul-academy/portal-be/internal/authz"
	"github.com/haneul-academy/portal-be/internal/config"
	"github.com/haneul-academy/portal-be/internal/models"
)

// DefaultListLimit caps content listings when the caller does not ask for
// fewer rows.
const DefaultListLimit = 100

// Singleton keys for shared content.
const (
	SingletonCurrentBook  = "current_book"
	SingletonSiteSettings = "site_settings"
	wordOfDayPrefix       = "word_of_day:"
)

// ContentServiceProvider defines the interface for the content repository.
type ContentServiceProvider interface {
	Create(actor models.Identity, item models.ContentItem) (models.ContentItem, error)
	List(kind models.Kind, limit int) ([]models.ContentItem, error)
	Get(kind models.Kind, id string) (models.ContentItem, error)
	Delete(actor models.Identity, kind models.Kind, id string) error
	SetSingleton(actor models.Identity, key, value string) (models.Singleton, error)
	GetSingleton(key string) (models.Singleton, error)
	SetWordOfDay(actor models.Identity, date, value string) (models.Singleton, error)
	GetWordOfDay(date string) (models.Singleton, error)
	PruneChat(keep int) error
}

// ContentService is the generic repository behind every content kind.
type ContentService struct {
	db          *sql.DB
	cfg         *config.Config
	activitySvc ActivityServiceProvider
}

// NewContentService creates a new ContentService.
func NewContentService(db *sql.DB, cfg *config.Config, activitySvc ActivityServiceProvider) *ContentService {
	return &ContentService{db: db, cfg: cfg, activitySvc: activitySvc}
}

// Create stores a new item owned by the acting identity. Announcements are
// moderator-only; everything else is open to any authenticated identity,
// guests included.
func (s *ContentService) Create(actor models.Identity, item models.ContentItem) (models.ContentItem, error) {
	if !models.ValidKind(item.Kind) {
		return models.ContentItem{}, fmt.Errorf("unknown content kind %q", item.Kind)
	}
	if item.Kind == models.KindAnnouncement && !authz.CanPerform(actor.Role, authz.ActionPostAnnouncement) {
		return models.ContentItem{}, &apperr.ForbiddenError{Action: string(authz.ActionPostAnnouncement)}
	}
	if item.Kind == models.KindRating && (item.Rating < 1 || item.Rating > 5) {
		return models.ContentItem{}, fmt.Errorf("rating must be between 1 and 5")
	}
	if item.Kind == models.KindSchedule && item.EventDate == nil {
		return models.ContentItem{}, fmt.Errorf("schedule entries need an event date")
	}

	item.ID = uuid.New().String()
	item.Owner = actor.Username

	var rating interface{}
	if item.Kind == models.KindRating {
		rating = item.Rating
	}
	_, err := s.db.Exec(`
		INSERT INTO content (id, kind, owner, title, body, rating, attachment_id, event_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Kind, item.Owner, item.Title, item.Body, rating, item.AttachmentID, item.EventDate)
	if err != nil {
		return models.ContentItem{}, err
	}

	s.activitySvc.Record(actor.Username, "content-create:"+string(item.Kind))
	return s.Get(item.Kind, item.ID)
}

// List returns items of one kind. Ratings come back highest rating first,
// schedules soonest first, and everything else newest first. Results are
// capped at DefaultListLimit unless a smaller limit is requested.
func (s *ContentService) List(kind models.Kind, limit int) ([]models.ContentItem, error) {
	if !models.ValidKind(kind) {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	order := "created_at DESC, rowid DESC"
	switch kind {
	case models.KindRating:
		order = "rating DESC, rowid DESC"
	case models.KindSchedule:
		order = "event_date ASC"
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT id, kind, owner, title, body, rating, attachment_id, event_date, created_at
		FROM content WHERE kind = ? ORDER BY %s LIMIT ?`, order), kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanItems(rows)
}

// Get retrieves a single item.
func (s *ContentService) Get(kind models.Kind, id string) (models.ContentItem, error) {
	row := s.db.QueryRow(`
		SELECT id, kind, owner, title, body, rating, attachment_id, event_date, created_at
		FROM content WHERE kind = ? AND id = ?`, kind, id)
	item, err := s.scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.ContentItem{}, &apperr.NotFoundError{Kind: string(kind), ID: id}
		}
		return models.ContentItem{}, err
	}
	return item, nil
}

// Delete removes an item. Owners may delete their own items; deleting
// someone else's requires moderation rights.
func (s *ContentService) Delete(actor models.Identity, kind models.Kind, id string) error {
	item, err := s.Get(kind, id)
	if err != nil {
		return err
	}
	if !authz.CanDeleteContent(actor, item.Owner) {
		return &apperr.ForbiddenError{Action: string(authz.ActionModerateContent)}
	}

	if _, err := s.db.Exec("DELETE FROM content WHERE kind = ? AND id = ?", kind, id); err != nil {
		return err
	}

	s.activitySvc.Record(actor.Username, "content-delete:"+string(kind))
	return nil
}

// SetSingleton upserts one shared key/value item. The write is a single
// ON CONFLICT statement so concurrent editors cannot interleave. The edit
// gate is open by default, matching the observed baseline; the tightened
// policy restricts it to moderators.
func (s *ContentService) SetSingleton(actor models.Identity, key, value string) (models.Singleton, error) {
	if s.cfg.RestrictSingletonEdits && !authz.CanPerform(actor.Role, authz.ActionViewAdmin) {
		return models.Singleton{}, &apperr.ForbiddenError{Action: string(authz.ActionEditSingleton)}
	}

	_, err := s.db.Exec(`
		INSERT INTO singletons (key, value, updated_by, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_by = excluded.updated_by, updated_at = CURRENT_TIMESTAMP`,
		key, value, actor.Username)
	if err != nil {
		return models.Singleton{}, err
	}

	s.activitySvc.Record(actor.Username, "singleton-set:"+key)
	return s.GetSingleton(key)
}

// GetSingleton retrieves one shared item.
func (s *ContentService) GetSingleton(key string) (models.Singleton, error) {
	var sg models.Singleton
	row := s.db.QueryRow("SELECT key, value, updated_by, updated_at FROM singletons WHERE key = ?", key)
	err := row.Scan(&sg.Key, &sg.Value, &sg.UpdatedBy, &sg.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Singleton{}, &apperr.NotFoundError{Kind: "singleton", ID: key}
		}
		return models.Singleton{}, err
	}
	return sg, nil
}

// SetWordOfDay upserts the word for one date (YYYY-MM-DD). One entry per
// date: the date is part of the singleton key.
func (s *ContentService) SetWordOfDay(actor models.Identity, date, value string) (models.Singleton, error) {
	return s.SetSingleton(actor, wordOfDayPrefix+date, value)
}

// GetWordOfDay retrieves the word for one date.
func (s *ContentService) GetWordOfDay(date string) (models.Singleton, error) {
	return s.GetSingleton(wordOfDayPrefix + date)
}

// PruneChat drops chat history beyond the newest keep rows.
func (s *ContentService) PruneChat(keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM content WHERE kind = ? AND rowid NOT IN (
			SELECT rowid FROM content WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, models.KindChat, models.KindChat, keep)
	return err
}

// scanItems is a helper to scan multiple rows into a slice of items.
func (s *ContentService) scanItems(rows *sql.Rows) ([]models.ContentItem, error) {
	var items []models.ContentItem
	for rows.Next() {
		item, err := s.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// scanItem is a helper to scan a single row into a ContentItem.
func (s *ContentService) scanItem(scanner interface{ Scan(...interface{}) error }) (models.ContentItem, error) {
	var item models.ContentItem
	var title sql.NullString
	var rating sql.NullInt64
	err := scanner.Scan(
		&item.ID,
		&item.Kind,
		&item.Owner,
		&title,
		&item.Body,
		&rating,
		&item.AttachmentID,
		&item.EventDate,
		&item.CreatedAt,
	)
	if err != nil {
		return models.ContentItem{}, err
	}
	if title.Valid {
		item.Title = title.String
	}
	if rating.Valid {
		item.Rating = int(rating.Int64)
	}
	return item, nil
}
