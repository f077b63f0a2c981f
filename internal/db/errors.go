package db

import "errors"

// Sentinel errors for type-safe error checking
// Use errors.Is() instead of string comparison
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")

	// Web session errors
	ErrWebSessionNotFound = errors.New("web session not found or expired")

	// API key errors
	ErrAPIKeyNotFound      = errors.New("API key not found")
	ErrAPIKeyLimitExceeded = errors.New("API key limit exceeded")
	ErrAPIKeyNameExists    = errors.New("API key with this name already exists")
	ErrInvalidAPIKey       = errors.New("invalid API key")

	// Song errors
	ErrSongNotFound = errors.New("song not found")

	// Practice session errors
	ErrPracticeSessionNotFound = errors.New("practice session not found")
)
