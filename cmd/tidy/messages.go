package main

import (
	"errors"

	"tidy/internal/apperr"
)

// organizeError marks a failure inside an organize run so it is reported
// as "Organization failed: ...".
type organizeError struct{ err error }

func (e *organizeError) Error() string { return e.err.Error() }
func (e *organizeError) Unwrap() error { return e.err }

// plainError is shown to the user as is.
type plainError string

func (e plainError) Error() string { return string(e) }

// userMessage turns an error into the line shown to the user.
func userMessage(err error) string {
	switch apperr.KindOf(err) {
	case apperr.EmptyCredentials:
		return "Please enter both username and password!"
	case apperr.UserExists:
		return "Username already exists!"
	case apperr.InvalidCredentials:
		return "Invalid credentials!"
	case apperr.NoUndoAvailable:
		return "No undo history found!"
	case apperr.UndoOwnershipMismatch:
		return "You can only undo your own last operation!"
	case apperr.FolderNotFound:
		return "Folder path does not exist!"
	}
	var pe plainError
	if errors.As(err, &pe) {
		return string(pe)
	}
	var oe *organizeError
	if errors.As(err, &oe) {
		return "Organization failed: " + oe.err.Error()
	}
	return "Error: " + err.Error()
}
