package services

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
)

// IsNotFound reports whether err is one of the entity-not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRoleNotFound) || errors.Is(err, ErrMemberNotFound)
}

// IsConflict reports whether err is a unique-field collision.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrUsernameExists)
}
