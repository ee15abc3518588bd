// ABOUTME: Badger key-value storage implementation for location records
// ABOUTME: Records are JSON values under big-endian id keys so iteration follows insertion order

package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/harper/geolocation/internal/models"
)

var (
	recordPrefix = []byte("location:")
	sequenceKey  = []byte("seq:location")
)

// sequenceBandwidth is how many ids are leased from badger at a time.
const sequenceBandwidth = 64

// BadgerStore implements LocationStore on an embedded badger database.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Compile-time check that BadgerStore implements LocationStore.
var _ LocationStore = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) a badger database in dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence(sequenceKey, sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

func recordKey(id int64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], uint64(id))
	return key
}

// Close releases the id lease and closes the database.
func (s *BadgerStore) Close() error {
	seqErr := s.seq.Release()
	if err := s.db.Close(); err != nil {
		return err
	}
	return seqErr
}

// Insert stores a record under the next sequence id.
func (s *BadgerStore) Insert(rec *models.LocationRecord) (int64, error) {
	next, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next id: %w", err)
	}
	// Sequences start at 0, which is reserved for unsaved records.
	id := int64(next) + 1

	stored := *rec
	stored.ID = id
	data, err := json.Marshal(&stored)
	if err != nil {
		return 0, fmt.Errorf("encode location: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(id), data)
	})
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}
	return id, nil
}

// GetByID retrieves a record by id.
func (s *BadgerStore) GetByID(id int64) (*models.LocationRecord, error) {
	var rec models.LocationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location %d: %w", id, err)
	}
	return &rec, nil
}

// GetAll returns every record in id order.
func (s *BadgerStore) GetAll() ([]*models.LocationRecord, error) {
	var records []*models.LocationRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = recordPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(recordPrefix); it.ValidForPrefix(recordPrefix); it.Next() {
			var rec models.LocationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode location: %w", err)
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAll removes every record. The id sequence keeps counting.
func (s *BadgerStore) DeleteAll() error {
	return s.db.DropPrefix(recordPrefix)
}

// DeleteByID removes a single record.
func (s *BadgerStore) DeleteByID(id int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
}
