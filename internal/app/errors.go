package app

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoUploads       = errors.New("no lecture files uploaded")
)
