package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNoPlatformToken    = errors.New("no access token configured for platform")
	ErrUnsupportedAction  = errors.New("action not supported on this platform")
	ErrWizardStateExpired = errors.New("subscription wizard state expired")
	ErrInvalidExecContext = errors.New("invalid query execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
