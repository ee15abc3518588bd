// ABOUTME: Error taxonomy for repository operations
// ABOUTME: Sentinels are joined with their cause so both match errors.Is

package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("location not found")

	// ErrExternalCallFailed is returned when the resolution API call fails or
	// its response lacks a usable position.
	ErrExternalCallFailed = errors.New("MLS query failed")

	// ErrMissingInput is returned when no reported GPS position was supplied.
	ErrMissingInput = errors.New("GPS failed")

	// ErrStoreFailure wraps errors from the local store.
	ErrStoreFailure = errors.New("location store failure")
)

func wrap(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}
