package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haneul-academy/portal-be/internal/apperr"
	"github.com/haneul-academy/portal-be/internal/models"
)

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register("alice", "pw1")
	require.NoError(t, err)

	_, err = f.users.Register("alice", "pw2")
	require.ErrorIs(t, err, apperr.ErrDuplicateUsername)
}

func TestRegister_DefaultsToStudent(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.Register("alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.Active)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthenticate_Password(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "alice", models.RoleStudent)

	ident, err := f.users.Authenticate("alice", "password-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", ident.Username)
	assert.Equal(t, models.RoleStudent, ident.Role)
	assert.False(t, ident.Guest)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "alice", models.RoleStudent)

	_, err := f.users.Authenticate("alice", "nope")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestAuthenticate_UnknownUsername(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Authenticate("nobody", "whatever")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestAuthenticate_PassphraseElevation(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "alice", models.RoleStudent)

	tests := []struct {
		name     string
		username string
		secret   string
		wantRole models.Role
		wantErr  error
	}{
		{"teacher passphrase, existing user", "alice", "teacher-passphrase", models.RoleTeacher, nil},
		{"creator passphrase, existing user", "alice", "creator-passphrase", models.RoleCreator, nil},
		{"teacher passphrase, missing user", "mallory", "teacher-passphrase", "", apperr.ErrUnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, err := f.users.Authenticate(tt.username, tt.secret)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, ident.Role)
		})
	}
}

func TestAuthenticate_PassphraseElevationIsSessionScoped(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "alice", models.RoleStudent)

	ident, err := f.users.Authenticate("alice", "teacher-passphrase")
	require.NoError(t, err)
	require.Equal(t, models.RoleTeacher, ident.Role)

	// The stored role stays student.
	user, err := f.users.GetByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
}

func TestAuthenticate_PassphraseDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.EnablePassphraseLogin = false
	f.mustRegister(t, "alice", models.RoleStudent)

	// With the compatibility path off the passphrase is just a wrong password.
	_, err := f.users.Authenticate("alice", "teacher-passphrase")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestAuthenticate_BannedBeforeEverything(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "bob", models.RoleStudent)
	admin := f.mustRegister(t, "teach", models.RoleTeacher)

	require.NoError(t, f.moderation.Ban(admin, "bob", "spamming"))

	// Correct password: still banned.
	_, err := f.users.Authenticate("bob", "password-bob")
	var be *apperr.BannedError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "spamming", be.Reason)

	// Elevation passphrase: still banned.
	_, err = f.users.Authenticate("bob", "creator-passphrase")
	require.True(t, errors.As(err, &be))
}

func TestGuest(t *testing.T) {
	f := newFixture(t)

	ident := f.users.Guest()
	assert.Equal(t, GuestUsername, ident.Username)
	assert.Equal(t, models.RoleStudent, ident.Role)
	assert.True(t, ident.Guest)

	// Guests are never persisted.
	_, err := f.users.GetByUsername(GuestUsername)
	require.ErrorIs(t, err, apperr.ErrUnknownUser)
}

func TestChangeRole(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "alice", models.RoleStudent)
	admin := f.mustRegister(t, "teach", models.RoleTeacher)

	user, err := f.users.ChangeRole(admin, "alice", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)

	_, err = f.users.ChangeRole(admin, "nobody", models.RoleTeacher)
	require.ErrorIs(t, err, apperr.ErrUnknownUser)

	_, err = f.users.ChangeRole(admin, "alice", models.Role("wizard"))
	require.Error(t, err)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	f.mustRegister(t, "alice", models.RoleStudent)
	admin := f.mustRegister(t, "teach", models.RoleTeacher)

	require.NoError(t, f.users.DeleteUser(admin, "alice"))

	// Soft delete: the row stays, the account no longer resolves.
	_, err := f.users.GetByUsername("alice")
	require.ErrorIs(t, err, apperr.ErrUnknownUser)
	var active int
	require.NoError(t, f.db.QueryRow("SELECT active FROM users WHERE username = 'alice'").Scan(&active))
	assert.Equal(t, 0, active)

	_, err = f.users.Authenticate("alice", "password-alice")
	require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestDeleteUser_SelfDenied(t *testing.T) {
	f := newFixture(t)
	admin := f.mustRegister(t, "teach", models.RoleTeacher)

	err := f.users.DeleteUser(admin, "teach")
	require.ErrorIs(t, err, apperr.ErrSelfActionDenied)
}
