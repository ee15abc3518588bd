// ABOUTME: SQLite storage implementation for location records
// ABOUTME: Provides local-only persistence using pure Go SQLite driver

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/geolocation/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements LocationStore with a local SQLite database.
type SQLiteDB struct {
	db   *sql.DB
	path string
}

// Compile-time check that SQLiteDB implements LocationStore.
var _ LocationStore = (*SQLiteDB)(nil)

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "geolocation", "locations.db")
}

// NewSQLiteDB creates a new SQLite database at the given path.
// Creates the directory and database file if they don't exist.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps writes serialized inside the process.
	db.SetMaxOpenConns(1)

	s := &SQLiteDB{db: db, path: path}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates or updates the database schema.
func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS locations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mls_latitude REAL NOT NULL,
			mls_longitude REAL NOT NULL,
			mls_accuracy REAL NOT NULL,
			gps_latitude REAL NOT NULL,
			gps_longitude REAL NOT NULL,
			gps_accuracy REAL NOT NULL,
			capture_time DATETIME NOT NULL,
			params TEXT NOT NULL DEFAULT '{}'
		);

		CREATE INDEX IF NOT EXISTS idx_locations_capture_time ON locations(capture_time);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteDB) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Insert stores a record and returns its auto-assigned id.
func (s *SQLiteDB) Insert(rec *models.LocationRecord) (int64, error) {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return 0, fmt.Errorf("encode params: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO locations (mls_latitude, mls_longitude, mls_accuracy,
			gps_latitude, gps_longitude, gps_accuracy, capture_time, params)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Resolved.Latitude, rec.Resolved.Longitude, rec.Resolved.Accuracy,
		rec.Reported.Latitude, rec.Reported.Longitude, rec.Reported.Accuracy,
		rec.CaptureTime, string(params),
	)
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a record by its id.
func (s *SQLiteDB) GetByID(id int64) (*models.LocationRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, mls_latitude, mls_longitude, mls_accuracy,
			gps_latitude, gps_longitude, gps_accuracy, capture_time, params
		 FROM locations WHERE id = ?`,
		id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// GetAll returns all records ordered by id.
func (s *SQLiteDB) GetAll() ([]*models.LocationRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, mls_latitude, mls_longitude, mls_accuracy,
			gps_latitude, gps_longitude, gps_accuracy, capture_time, params
		 FROM locations ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.LocationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteAll removes every record.
func (s *SQLiteDB) DeleteAll() error {
	_, err := s.db.Exec("DELETE FROM locations")
	return err
}

// DeleteByID removes a single record.
func (s *SQLiteDB) DeleteByID(id int64) error {
	_, err := s.db.Exec("DELETE FROM locations WHERE id = ?", id)
	return err
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.LocationRecord, error) {
	var rec models.LocationRecord
	var params string
	err := row.Scan(&rec.ID,
		&rec.Resolved.Latitude, &rec.Resolved.Longitude, &rec.Resolved.Accuracy,
		&rec.Reported.Latitude, &rec.Reported.Longitude, &rec.Reported.Accuracy,
		&rec.CaptureTime, &params)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan location: %w", err)
	}
	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return nil, fmt.Errorf("decode params for location %d: %w", rec.ID, err)
	}
	return &rec, nil
}
