package repository

import "errors"

// Repository errors
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition indicates a folder transition that is not
	// allowed, such as archiving a draft
	ErrInvalidTransition = errors.New("invalid folder transition")
)
