package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haneul-academy/portal-be/internal/config"
	"github.com/haneul-academy/portal-be/internal/database"
	"github.com/haneul-academy/portal-be/internal/models"
)

// --- helpers ---

// newTestDB opens an in-memory database with the full schema applied. One
// connection max: every new connection to :memory: is a fresh database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		EnablePassphraseLogin: true,
		TeacherPassphrase:     "teacher-passphrase",
		CreatorPassphrase:     "creator-passphrase",
		ChatHistoryLimit:      100,
	}
}

type fixture struct {
	db         *sql.DB
	cfg        *config.Config
	users      *UserService
	moderation *ModerationService
	content    *ContentService
	activity   *ActivityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	cfg := newTestConfig()
	activity := NewActivityService(db)
	moderation := NewModerationService(db, activity)
	users := NewUserService(db, cfg, moderation, activity)
	content := NewContentService(db, cfg, activity)
	return &fixture{db: db, cfg: cfg, users: users, moderation: moderation, content: content, activity: activity}
}

// mustRegister registers a user and optionally promotes them.
func (f *fixture) mustRegister(t *testing.T, username string, role models.Role) models.Identity {
	t.Helper()
	_, err := f.users.Register(username, "password-"+username)
	require.NoError(t, err)
	if role != models.RoleStudent {
		_, err = f.db.Exec("UPDATE users SET role = ? WHERE username = ?", role, username)
		require.NoError(t, err)
	}
	return models.Identity{Username: username, Role: role}
}
