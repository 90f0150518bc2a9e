package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for identity operations.
var (
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrUnknownUser        = errors.New("unknown user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfActionDenied   = errors.New("action may not target your own account")
)

// BannedError is returned on any login attempt by a banned username.
type BannedError struct {
	Reason string
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("account is banned: %s", e.Reason)
}

// IsBanned reports whether err is a BannedError.
func IsBanned(err error) bool {
	var be *BannedError
	return errors.As(err, &be)
}

// ForbiddenError indicates the acting role may not perform an action.
type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// NotFoundError indicates a content item or record does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
