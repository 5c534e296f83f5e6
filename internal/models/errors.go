package models

import "errors"

var (
	// ErrNotFound is returned by stores when the referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when a write would duplicate a user email.
	ErrEmailTaken = errors.New("email already registered")
)
