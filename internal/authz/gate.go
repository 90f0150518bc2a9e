// Package authz holds the single rule table deciding which roles may perform
// which actions, collected here instead of scattered through handlers.
package authz

import "github.com/haneul-academy/portal-be/internal/models"

// Action names a gated operation.
type Action string

const (
	ActionChangeRole       Action = "change role"
	ActionBanUser          Action = "ban user"
	ActionUnbanUser        Action = "unban user"
	ActionDeleteUser       Action = "delete user"
	ActionCreateContent    Action = "create content"
	ActionPostAnnouncement Action = "post announcement"
	ActionModerateContent  Action = "delete others' content"
	ActionEditSingleton    Action = "edit shared content"
	ActionViewAdmin        Action = "view admin surface"
)

// moderator reports whether the role carries moderation rights.
func moderator(role models.Role) bool {
	return role == models.RoleTeacher || role == models.RoleCreator
}

// CanPerform decides whether a role may carry out an action. Singleton edits
// are open to everyone by default; callers enforcing the tightened policy
// should gate on moderator roles via ActionViewAdmin-level checks instead.
func CanPerform(role models.Role, action Action) bool {
	switch action {
	case ActionChangeRole, ActionBanUser, ActionUnbanUser, ActionDeleteUser,
		ActionModerateContent, ActionPostAnnouncement, ActionViewAdmin:
		return moderator(role)
	case ActionCreateContent, ActionEditSingleton:
		// Any authenticated identity, guests included.
		return true
	}
	return false
}

// CanDeleteContent decides whether actor may delete an item owned by owner.
// Owners may always delete their own items; anyone else needs moderation
// rights.
func CanDeleteContent(actor models.Identity, owner string) bool {
	if actor.Username == owner {
		return true
	}
	return moderator(actor.Role)
}
