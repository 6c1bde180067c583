package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed is returned when the login endpoint rejects or cannot
	// confirm the supplied username.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNoActiveUser is returned when a dialog is created without a session.
	ErrNoActiveUser = errors.New("no active user")

	// ErrDialogRequired is returned when an assistant message is added without a dialog id.
	ErrDialogRequired = errors.New("assistant message requires an existing dialog")

	// ErrDialogNotFound is returned when a dialog id does not name one of the
	// current user's dialogs.
	ErrDialogNotFound = errors.New("dialog not found")

	ErrQueryTransport = errors.New("query transport failure")
	ErrQueryServer    = errors.New("query server error")

	ErrEmptyInput      = errors.New("empty input")
	ErrRequestInFlight = errors.New("a request is already in flight")
	ErrInvalidRole     = errors.New("invalid role")
)

// StorageError represents errors accessing the key/value store
type StorageError struct {
	Op  string // "get", "set", "remove", "batch"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding persisted or remote data
type ParseError struct {
	Source string // "store", "login", "query"
	Key    string // storage key or endpoint
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RequestError represents a failed call to the backend
type RequestError struct {
	Endpoint string
	Status   int // 0 when no response was received
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request error [%s]: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("request error [%s] status %d: %v", e.Endpoint, e.Status, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
