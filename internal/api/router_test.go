package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haneul-academy/portal-be/internal/auth"
	"github.com/haneul-academy/portal-be/internal/config"
	"github.com/haneul-academy/portal-be/internal/database"
	"github.com/haneul-academy/portal-be/internal/models"
	"github.com/haneul-academy/portal-be/internal/services"
	"github.com/haneul-academy/portal-be/internal/websocket"
)

type testServer struct {
	router http.Handler
	db     *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth.Init("test-secret")

	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{ChatHistoryLimit: 100}
	activitySvc := services.NewActivityService(db)
	moderationSvc := services.NewModerationService(db, activitySvc)
	userSvc := services.NewUserService(db, cfg, moderationSvc, activitySvc)
	contentSvc := services.NewContentService(db, cfg, activitySvc)
	uploadSvc, err := services.NewUploadService(t.TempDir())
	require.NoError(t, err)

	hub := websocket.NewHub()
	go hub.Run()

	return &testServer{
		router: NewRouter(hub, userSvc, moderationSvc, contentSvc, activitySvc, uploadSvc),
		db:     db,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account, optionally promotes it, and returns a session
// token.
func (s *testServer) register(t *testing.T, username string, role models.Role) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": username, "password": "pw-" + username})
	require.Equal(t, http.StatusCreated, rec.Code)

	if role != models.RoleStudent {
		_, err := s.db.Exec("UPDATE users SET role = ? WHERE username = ?", role, username)
		require.NoError(t, err)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": "pw-" + username})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"username": "alice", "password": "pw2"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "pw"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuestSessionAndMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token    string          `json:"token"`
		Identity models.Identity `json:"identity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Identity.Guest)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ident models.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ident))
	assert.Equal(t, "guest", ident.Username)
	assert.Equal(t, models.RoleStudent, ident.Role)
}

func TestContentEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", models.RoleStudent)
	bob := s.register(t, "bob", models.RoleStudent)
	teach := s.register(t, "teach", models.RoleTeacher)

	// Unauthenticated access is rejected.
	rec := s.do(t, http.MethodGet, "/api/v1/content/homework", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/content/homework", alice, map[string]string{"title": "unit 3", "body": "pages 10-12"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var item models.ContentItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "alice", item.Owner)

	rec = s.do(t, http.MethodGet, "/api/v1/content/homework", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.ContentItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)

	// Unknown kind.
	rec = s.do(t, http.MethodGet, "/api/v1/content/doodles", bob, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Another student cannot delete it, a teacher can.
	rec = s.do(t, http.MethodDelete, "/api/v1/content/homework/"+item.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/v1/content/homework/"+item.ID, teach, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/v1/content/homework/"+item.ID, teach, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnnouncementGate(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", models.RoleStudent)
	teach := s.register(t, "teach", models.RoleTeacher)

	rec := s.do(t, http.MethodPost, "/api/v1/content/announcement", alice, map[string]string{"body": "field trip"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/content/announcement", teach, map[string]string{"body": "field trip"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSingletonAndWordOfDayEndpoints(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", models.RoleStudent)

	rec := s.do(t, http.MethodPut, "/api/v1/singletons/current_book", alice, map[string]string{"value": "Holes"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/singletons/current_book", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sg models.Singleton
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sg))
	assert.Equal(t, "Holes", sg.Value)

	rec = s.do(t, http.MethodPost, "/api/v1/word-of-day", alice, map[string]string{"date": "2026-08-31", "value": "serendipity"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/word-of-day?date=2026-08-31", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/word-of-day?date=1999-01-01", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSurface(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice", models.RoleStudent)
	s.register(t, "bob", models.RoleStudent)
	teach := s.register(t, "teach", models.RoleTeacher)

	// Students are locked out of the whole admin surface.
	rec := s.do(t, http.MethodGet, "/api/v1/admin/users", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/admin/users", teach, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Role change.
	rec = s.do(t, http.MethodPut, "/api/v1/admin/users/bob/role", teach, map[string]string{"role": "teacher"})
	require.Equal(t, http.StatusOK, rec.Code)
	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, models.RoleTeacher, user.Role)

	// Self-ban is an explicit error.
	rec = s.do(t, http.MethodPost, "/api/v1/admin/users/teach/ban", teach, map[string]string{"reason": "oops"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Ban alice; her login turns into a 403 with the reason.
	rec = s.do(t, http.MethodPost, "/api/v1/admin/users/alice/ban", teach, map[string]string{"reason": "spamming"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "pw-alice"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "spamming")

	// Unban restores access.
	rec = s.do(t, http.MethodDelete, "/api/v1/admin/users/alice/ban", teach, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "pw-alice"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Activity trail recorded all of this.
	rec = s.do(t, http.MethodGet, "/api/v1/admin/logs", teach, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.ActivityLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.NotEmpty(t, logs)
}

func TestAdminDeleteUser(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "bob", models.RoleStudent)
	teach := s.register(t, "teach", models.RoleTeacher)

	rec := s.do(t, http.MethodDelete, "/api/v1/admin/users/teach", teach, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/admin/users/bob", teach, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "bob", "password": "pw-bob"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
