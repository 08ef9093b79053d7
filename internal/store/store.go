// Package store persists allocator state in LevelDB.
//
// Each allocator lives under its own key prefix:
//
//	a/<key>/name       display name
//	a/<key>/capacity   8-byte big-endian
//	a/<key>/drawn      8-byte big-endian
//	a/<key>/o/<pos>    8-byte big-endian identifier, pos 8-byte big-endian
//
// Every mutation is written as a single batch so a failed call never leaves a
// partial update behind.
package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/eykd/mintdraw/internal/domain"
	"github.com/eykd/mintdraw/internal/slug"
)

const (
	allocPrefix   = "a/"
	fieldName     = "name"
	fieldCapacity = "capacity"
	fieldDrawn    = "drawn"
	overrideInfix = "o/"
)

// Store is a LevelDB-backed allocator repository.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory returns a Store backed by in-memory storage.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("opening memory store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func fieldKey(key, field string) []byte {
	return []byte(allocPrefix + key + "/" + field)
}

func overridePrefix(key string) []byte {
	return []byte(allocPrefix + key + "/" + overrideInfix)
}

func overrideKey(key string, pos uint64) []byte {
	return binary.BigEndian.AppendUint64(overridePrefix(key), pos)
}

func encodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: value of %d bytes, want 8", domain.ErrCorruptState, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

func (s *Store) getUint64(k []byte) (uint64, error) {
	b, err := s.db.Get(k, nil)
	if err != nil {
		return 0, err
	}
	return decodeUint64(b)
}

// Create stores a fresh allocator. It fails with domain.ErrAlreadyInitialized
// when an allocator with the same key already exists.
func (s *Store) Create(ctx context.Context, name string, capacity uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := slug.Key(name)
	if err != nil {
		return err
	}

	ok, err := s.db.Has(fieldKey(key, fieldCapacity), nil)
	if err != nil {
		return fmt.Errorf("checking %s: %w", key, err)
	}
	if ok {
		return fmt.Errorf("%s: %w", key, domain.ErrAlreadyInitialized)
	}

	batch := new(leveldb.Batch)
	batch.Put(fieldKey(key, fieldName), []byte(name))
	batch.Put(fieldKey(key, fieldCapacity), encodeUint64(capacity))
	batch.Put(fieldKey(key, fieldDrawn), encodeUint64(0))
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("creating %s: %w", key, err)
	}
	return nil
}

// Load reads the full state of the named allocator.
func (s *Store) Load(ctx context.Context, name string) (*domain.AllocatorState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := slug.Key(name)
	if err != nil {
		return nil, err
	}
	return s.load(key)
}

func (s *Store) load(key string) (*domain.AllocatorState, error) {
	capacity, err := s.getUint64(fieldKey(key, fieldCapacity))
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading capacity of %s: %w", key, err)
	}
	drawn, err := s.getUint64(fieldKey(key, fieldDrawn))
	if err != nil {
		return nil, fmt.Errorf("reading drawn count of %s: %w", key, err)
	}

	state := domain.NewAllocatorState(capacity)
	state.Drawn = drawn

	prefix := overridePrefix(key)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		pos, err := decodeUint64(iter.Key()[len(prefix):])
		if err != nil {
			return nil, fmt.Errorf("reading override key of %s: %w", key, err)
		}
		id, err := decodeUint64(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("reading override %d of %s: %w", pos, key, err)
		}
		state.Overrides[pos] = id
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating overrides of %s: %w", key, err)
	}

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return state, nil
}

// Commit persists one draw: the new drawn count and the override it wrote.
func (s *Store) Commit(ctx context.Context, name string, drawn uint64, d domain.Draw) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := slug.Key(name)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(fieldKey(key, fieldDrawn), encodeUint64(drawn))
	batch.Put(overrideKey(key, d.Slot), encodeUint64(d.SlotValue))
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("committing draw for %s: %w", key, err)
	}
	return nil
}

// List returns a summary of every allocator, sorted by key.
func (s *Store) List(ctx context.Context) ([]domain.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	suffix := "/" + fieldCapacity
	var keys []string
	iter := s.db.NewIterator(util.BytesPrefix([]byte(allocPrefix)), nil)
	for iter.Next() {
		k := string(iter.Key())
		rest := strings.TrimPrefix(k, allocPrefix)
		if strings.HasSuffix(rest, suffix) && !strings.Contains(strings.TrimSuffix(rest, suffix), "/") {
			keys = append(keys, strings.TrimSuffix(rest, suffix))
		}
	}
	err := iter.Error()
	iter.Release()
	if err != nil {
		return nil, fmt.Errorf("listing allocators: %w", err)
	}

	summaries := make([]domain.Summary, 0, len(keys))
	for _, key := range pie.Sort(keys) {
		state, err := s.load(key)
		if err != nil {
			return nil, err
		}
		name, err := s.db.Get(fieldKey(key, fieldName), nil)
		if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("reading name of %s: %w", key, err)
		}
		summaries = append(summaries, domain.Summary{
			Key:       key,
			Name:      string(name),
			Capacity:  state.Capacity,
			Drawn:     state.Drawn,
			Overrides: len(state.Overrides),
		})
	}
	return summaries, nil
}
