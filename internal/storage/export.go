// ABOUTME: Export and import functionality for location records
// ABOUTME: Supports a YAML backup format and a markdown table export

package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/harper/geolocation/internal/models"
	"gopkg.in/yaml.v3"
)

// BackupVersion is the current backup format version.
const BackupVersion = "1.0"

// backupTool identifies backups written by this program.
const backupTool = "geolocation"

// Backup represents the YAML backup format.
type Backup struct {
	Version    string           `yaml:"version"`
	ExportedAt time.Time        `yaml:"exported_at"`
	Tool       string           `yaml:"tool"`
	Locations  []LocationBackup `yaml:"locations"`
}

// LocationBackup represents a record in the backup format.
type LocationBackup struct {
	ID          int64                  `yaml:"id"`
	Resolved    models.Position        `yaml:"mls"`
	Reported    models.Position        `yaml:"gps"`
	CaptureTime time.Time              `yaml:"capture_time"`
	Params      models.LocationRequest `yaml:"params"`
}

// ExportToYAML exports all records to YAML format.
func ExportToYAML(store LocationStore) ([]byte, error) {
	records, err := store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	backup := Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       backupTool,
		Locations:  make([]LocationBackup, len(records)),
	}

	for i, rec := range records {
		backup.Locations[i] = LocationBackup{
			ID:          rec.ID,
			Resolved:    rec.Resolved,
			Reported:    rec.Reported,
			CaptureTime: rec.CaptureTime.UTC(),
			Params:      rec.Params,
		}
	}

	return yaml.Marshal(backup)
}

// ImportFromYAML inserts every record of a YAML backup.
// Records receive fresh ids from the destination store; capture times are kept.
// It returns the number of imported records.
func ImportFromYAML(store LocationStore, data []byte) (int, error) {
	var backup Backup
	if err := yaml.Unmarshal(data, &backup); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}

	if backup.Version != BackupVersion {
		return 0, fmt.Errorf("unsupported backup version: %s (expected %s)", backup.Version, BackupVersion)
	}

	if backup.Tool != backupTool {
		return 0, fmt.Errorf("wrong tool: %s (expected %s)", backup.Tool, backupTool)
	}

	for i, lb := range backup.Locations {
		if _, err := models.NewPosition(lb.Resolved.Latitude, lb.Resolved.Longitude, lb.Resolved.Accuracy); err != nil {
			return i, fmt.Errorf("location %d resolved position: %w", lb.ID, err)
		}
		if _, err := models.NewPosition(lb.Reported.Latitude, lb.Reported.Longitude, lb.Reported.Accuracy); err != nil {
			return i, fmt.Errorf("location %d reported position: %w", lb.ID, err)
		}
		rec := &models.LocationRecord{
			Resolved:    lb.Resolved,
			Reported:    lb.Reported,
			CaptureTime: lb.CaptureTime,
			Params:      lb.Params,
		}
		if _, err := store.Insert(rec); err != nil {
			return i, fmt.Errorf("insert location %d: %w", lb.ID, err)
		}
	}

	return len(backup.Locations), nil
}

// ExportToMarkdown renders all records as a markdown table.
func ExportToMarkdown(store LocationStore) ([]byte, error) {
	records, err := store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return RecordsToMarkdown(records), nil
}

// RecordsToMarkdown renders records as a markdown table.
func RecordsToMarkdown(records []*models.LocationRecord) []byte {
	var sb strings.Builder

	now := time.Now().UTC()
	sb.WriteString(fmt.Sprintf("# Location Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(records) == 0 {
		sb.WriteString("No locations recorded.\n")
		return []byte(sb.String())
	}

	sb.WriteString("| ID | Captured | MLS | GPS | Signals |\n")
	sb.WriteString("|----|----------|-----|-----|---------|\n")

	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("| %d | %s | (%.5f, %.5f) ±%.0fm | (%.5f, %.5f) ±%.0fm | %d |\n",
			rec.ID,
			rec.CaptureTime.Format("2006-01-02 15:04"),
			rec.Resolved.Latitude, rec.Resolved.Longitude, rec.Resolved.Accuracy,
			rec.Reported.Latitude, rec.Reported.Longitude, rec.Reported.Accuracy,
			rec.Params.SignalCount()))
	}

	return []byte(sb.String())
}
