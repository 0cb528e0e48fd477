package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/starford/ceylonix/internal/apperr"
)

// Store hands out collections over one backend and serializes access to each
// collection with its own mutex.
type Store struct {
	backend Backend
	ids     *IDs

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store over backend.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		ids:     NewIDs(time.Now),
		locks:   make(map[string]*sync.Mutex),
	}
}

// NewID returns a fresh id for a record about to join records. It is greater
// than every id this Store issued and every id already stored, so a record
// written by another process holding the same collection never shares an id.
// Call it inside Update, where records is the current content.
func NewID[T any](s *Store, records []T, id func(T) int64) int64 {
	var floor int64
	for _, r := range records {
		if v := id(r); v > floor {
			floor = v
		}
	}
	return s.ids.NextAbove(floor)
}

func (s *Store) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Collection is a typed view of one named JSON array.
type Collection[T any] struct {
	name  string
	store *Store
}

// Open returns the collection called name holding records of type T.
func Open[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{name: name, store: s}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Load returns all records in insertion order. A corrupt collection is reported
// as apperr.ErrPersistence rather than treated as empty.
func (c *Collection[T]) Load() ([]T, error) {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()
	return c.load()
}

// Save replaces the collection with records.
func (c *Collection[T]) Save(records []T) error {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()

	data, err := c.encode(records)
	if err != nil {
		return err
	}
	err = c.store.backend.Update(c.name, func([]byte) ([]byte, error) { return data, nil })
	if err != nil {
		return apperr.Persistence("save "+c.name, err)
	}
	return nil
}

// Update runs fn over the current records and saves what it returns, holding the
// collection lock and the backend's cross-process lock across the whole
// load-mutate-save. If fn fails nothing is written.
func (c *Collection[T]) Update(fn func([]T) ([]T, error)) error {
	l := c.store.lock(c.name)
	l.Lock()
	defer l.Unlock()

	var fnErr error
	err := c.store.backend.Update(c.name, func(data []byte) ([]byte, error) {
		records, err := c.decode(data)
		if err != nil {
			fnErr = err
			return nil, err
		}
		next, err := fn(records)
		if err != nil {
			fnErr = err
			return nil, err
		}
		out, err := c.encode(next)
		if err != nil {
			fnErr = err
			return nil, err
		}
		return out, nil
	})
	switch {
	case fnErr != nil:
		return fnErr
	case err != nil:
		return apperr.Persistence("save "+c.name, err)
	}
	return nil
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := c.store.backend.Read(c.name)
	if err != nil {
		return nil, apperr.Persistence("load "+c.name, err)
	}
	return c.decode(data)
}

func (c *Collection[T]) decode(data []byte) ([]T, error) {
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperr.Persistence("decode "+c.name, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *Collection[T]) encode(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, apperr.Persistence("encode "+c.name, err)
	}
	return data, nil
}
