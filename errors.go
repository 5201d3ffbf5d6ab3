package lifeline

import "errors"

var (
	// Store errors.
	ErrNoStore         = errors.New("lifeline: no store configured")
	ErrStoreClosed     = errors.New("lifeline: store closed")
	ErrMigrationFailed = errors.New("lifeline: migration failed")

	// Not found errors.
	ErrDispatchNotFound = errors.New("lifeline: dispatch not found")

	// Conflict errors.
	ErrDispatchExists = errors.New("lifeline: dispatch already exists")
)
