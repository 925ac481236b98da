package model

import "errors"

// Common errors used across the application
var (
	// Competitor errors
	ErrCompetitorNotFound = errors.New("competitor not found")
	ErrFirstNameRequired  = errors.New("first name is required")
	ErrLastNameRequired   = errors.New("last name is required")
	ErrInvalidLanguage    = errors.New("language must be english or french")
	ErrInvalidCountry     = errors.New("unknown country code")

	// Number assignment errors
	ErrNoCompetitors   = errors.New("no competitors to number")
	ErrNumbersLocked   = errors.New("competition numbers are already assigned")
	ErrInvalidNumbers  = errors.New("numbers are not a permutation of 1..N")
	ErrAssignmentStale = errors.New("competitor list changed during assignment")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExists     = errors.New("session already exists")
	ErrSessionNotRunning = errors.New("session is not running")
	ErrInvalidDay        = errors.New("invalid competition day")
	ErrInvalidModule     = errors.New("module must be morning or evening")
	ErrTimeCapReached    = errors.New("maximum session time reached")
	ErrTimerActive       = errors.New("another session is already active")

	// Admin errors
	ErrAdminNotFound = errors.New("admin not found")
	ErrEmailExists   = errors.New("email already registered")
)
