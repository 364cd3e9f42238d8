// Package apperr defines the error kinds surfaced by tidy's engine and account layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind string

const (
	FolderNotFound        Kind = "FOLDER_NOT_FOUND"
	FolderUnreadable      Kind = "FOLDER_UNREADABLE"
	NoUndoAvailable       Kind = "NO_UNDO_AVAILABLE"
	UndoOwnershipMismatch Kind = "UNDO_OWNERSHIP_MISMATCH"
	FilesystemIO          Kind = "FILESYSTEM_IO"

	UserExists         Kind = "USER_EXISTS"
	InvalidCredentials Kind = "INVALID_CREDENTIALS"
	InvalidUsername    Kind = "INVALID_USERNAME"
	EmptyCredentials   Kind = "EMPTY_CREDENTIALS"
)

// Sentinels for errors.Is. They compare by Kind only.
var (
	ErrFolderNotFound        = &Error{Kind: FolderNotFound}
	ErrFolderUnreadable      = &Error{Kind: FolderUnreadable}
	ErrNoUndoAvailable       = &Error{Kind: NoUndoAvailable}
	ErrUndoOwnershipMismatch = &Error{Kind: UndoOwnershipMismatch}
	ErrFilesystemIO          = &Error{Kind: FilesystemIO}
	ErrUserExists            = &Error{Kind: UserExists}
	ErrInvalidCredentials    = &Error{Kind: InvalidCredentials}
	ErrInvalidUsername       = &Error{Kind: InvalidUsername}
	ErrEmptyCredentials      = &Error{Kind: EmptyCredentials}
)

// Error carries a Kind plus the operation and path that failed.
type Error struct {
	Kind Kind
	Op   string // e.g. "backup", "move", "mkdir"
	Path string
	Err  error
}

// New builds an Error of the given kind.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IO wraps a filesystem failure as FilesystemIO. A nil err yields nil.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: FilesystemIO, Op: op, Path: path, Err: err}
}
