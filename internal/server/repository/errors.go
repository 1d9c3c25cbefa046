package repository

import "errors"

var (
	// ErrNotFound indicates the requested user or token record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a user record was already registered.
	ErrAlreadyExists = errors.New("record already exists")
)
