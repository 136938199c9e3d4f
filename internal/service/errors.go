package service

import "errors"

var (
	// ErrUnauthorized indicates the caller is not logged in at all.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden indicates the caller's role does not permit the operation.
	ErrForbidden = errors.New("insufficient role")
	// ErrBadRequest indicates a malformed key, filename or path.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound indicates the source object no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a rename destination that already exists.
	ErrConflict = errors.New("a file with this name already exists in this folder")
)
