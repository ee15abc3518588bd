// ABOUTME: Store interface for persisted location records
// ABOUTME: Enables testability and storage backend swapping

package storage

import "github.com/harper/geolocation/internal/models"

// LocationStore defines CRUD operations over location records.
// Implementations serialize their own access.
type LocationStore interface {
	// GetAll returns every record in insertion order.
	GetAll() ([]*models.LocationRecord, error)
	// GetByID returns ErrNotFound if no record has id.
	GetByID(id int64) (*models.LocationRecord, error)
	// Insert stores rec and returns the id the store assigned to it.
	// rec.ID is ignored.
	Insert(rec *models.LocationRecord) (int64, error)
	DeleteAll() error
	// DeleteByID is a no-op when id does not exist.
	DeleteByID(id int64) error
	Close() error
}
