package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/haneul-academy/portal-be/internal/apperr"
	"github.com/haneul-academy/portal-be/internal/config"
	"github.com/haneul-academy/portal-be/internal/models"
)

// GuestUsername is the shared identity handed out without credentials.
const GuestUsername = "guest"

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(username, password string) (models.User, error)
	Authenticate(username, secret string) (models.Identity, error)
	Guest() models.Identity
	GetByUsername(username string) (models.User, error)
	ListUsers() ([]models.User, error)
	ChangeRole(actor models.Identity, username string, newRole models.Role) (models.User, error)
	DeleteUser(actor models.Identity, username string) error
}

// UserService provides registration, login, and account administration.
type UserService struct {
	db          *sql.DB
	cfg         *config.Config
	moderation  ModerationServiceProvider
	activitySvc ActivityServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, cfg *config.Config, moderation ModerationServiceProvider, activitySvc ActivityServiceProvider) *UserService {
	return &UserService{db: db, cfg: cfg, moderation: moderation, activitySvc: activitySvc}
}

// Register creates a new student account. Username uniqueness is the users
// table's UNIQUE constraint; a clash surfaces as ErrDuplicateUsername rather
// than being pre-checked, so concurrent registrations cannot race.
func (s *UserService) Register(username, password string) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleStudent,
		Active:       true,
	}

	_, err = s.db.Exec("INSERT INTO users(id, username, password_hash, role, active) VALUES(?, ?, ?, ?, 1)",
		user.ID, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.User{}, apperr.ErrDuplicateUsername
		}
		return models.User{}, err
	}

	s.activitySvc.Record(username, "register")
	user.PasswordHash = ""
	return user, nil
}

// Authenticate resolves a login attempt into an identity.
//
// Resolution order matters: the ban registry is consulted before any
// credential or passphrase check, so a banned user is refused even with a
// correct password. The shared-passphrase path elevates the session role of
// an existing account without touching the stored role; it is disabled unless
// EnablePassphraseLogin is configured.
func (s *UserService) Authenticate(username, secret string) (models.Identity, error) {
	if reason, banned := s.moderation.BanReason(username); banned {
		return models.Identity{}, &apperr.BannedError{Reason: reason}
	}

	if s.cfg.EnablePassphraseLogin {
		if role, ok := s.passphraseRole(secret); ok {
			user, err := s.GetByUsername(username)
			if err != nil {
				return models.Identity{}, apperr.ErrUnknownUser
			}
			s.activitySvc.Record(username, "login:"+string(role))
			return models.Identity{Username: user.Username, Role: role}, nil
		}
	}

	user, err := s.getByUsernameWithHash(username)
	if err != nil {
		return models.Identity{}, apperr.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		return models.Identity{}, apperr.ErrInvalidCredentials
	}

	s.activitySvc.Record(username, "login")
	return models.Identity{Username: user.Username, Role: user.Role}, nil
}

// Guest returns the ephemeral no-credentials identity. It is never written to
// the users table.
func (s *UserService) Guest() models.Identity {
	return models.Identity{Username: GuestUsername, Role: models.RoleStudent, Guest: true}
}

func (s *UserService) passphraseRole(secret string) (models.Role, bool) {
	switch {
	case s.cfg.CreatorPassphrase != "" && secret == s.cfg.CreatorPassphrase:
		return models.RoleCreator, true
	case s.cfg.TeacherPassphrase != "" && secret == s.cfg.TeacherPassphrase:
		return models.RoleTeacher, true
	}
	return "", false
}

// GetByUsername retrieves an active user by name, without the password hash.
func (s *UserService) GetByUsername(username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, role, active, created_at FROM users WHERE username = ? AND active = 1", username)
	err := row.Scan(&user.ID, &user.Username, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.ErrUnknownUser
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) getByUsernameWithHash(username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, password_hash, role, active, created_at FROM users WHERE username = ? AND active = 1", username)
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.ErrUnknownUser
		}
		return models.User{}, err
	}
	return user, nil
}

// ListUsers returns all accounts, active and inactive, ordered by username.
func (s *UserService) ListUsers() ([]models.User, error) {
	rows, err := s.db.Query("SELECT id, username, role, active, created_at FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ChangeRole durably assigns a new role to an account.
func (s *UserService) ChangeRole(actor models.Identity, username string, newRole models.Role) (models.User, error) {
	if !models.ValidRole(newRole) {
		return models.User{}, fmt.Errorf("unknown role %q", newRole)
	}

	res, err := s.db.Exec("UPDATE users SET role = ? WHERE username = ?", newRole, username)
	if err != nil {
		return models.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, apperr.ErrUnknownUser
	}

	s.activitySvc.Record(actor.Username, fmt.Sprintf("role-change:%s->%s", username, newRole))
	return s.GetByUsername(username)
}

// DeleteUser deactivates an account. The row is kept so content owned by the
// user still resolves; acting on your own account is an explicit error.
func (s *UserService) DeleteUser(actor models.Identity, username string) error {
	if actor.Username == username {
		return apperr.ErrSelfActionDenied
	}

	res, err := s.db.Exec("UPDATE users SET active = 0 WHERE username = ? AND active = 1", username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrUnknownUser
	}

	s.activitySvc.Record(actor.Username, "user-delete:"+username)
	return nil
}
