// ABOUTME: Data migration between location storage backends
// ABOUTME: Copies every record from a source store into a destination store

package storage

import (
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated records.
type MigrateSummary struct {
	Locations int
	// FirstID and LastID are the ids assigned by the destination.
	FirstID int64
	LastID  int64
}

// MigrateData copies all records from src to dst in id order.
// The destination assigns fresh ids; relative order is preserved.
// The destination should be empty before calling this function.
func MigrateData(src, dst LocationStore) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	records, err := src.GetAll()
	if err != nil {
		return nil, fmt.Errorf("list source locations: %w", err)
	}

	for _, rec := range records {
		copied := *rec
		copied.ID = 0
		id, err := dst.Insert(&copied)
		if err != nil {
			return nil, fmt.Errorf("copy location %d: %w", rec.ID, err)
		}
		if summary.FirstID == 0 {
			summary.FirstID = id
		}
		summary.LastID = id
		summary.Locations++
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
