package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/infrastructure/logger"
	"github.com/shelfmate/core/internal/ports"
)

// Snapshot is an immutable view of the store at one version.
type Snapshot struct {
	books   []entities.Book
	version uint64
}

// Books returns a copy of the records in display order.
func (s Snapshot) Books() []entities.Book {
	out := make([]entities.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Len returns the number of records
func (s Snapshot) Len() int { return len(s.books) }

// Version increases by one with every committed mutation.
func (s Snapshot) Version() uint64 { return s.version }

// Find looks a record up by id
func (s Snapshot) Find(id int64) (entities.Book, bool) {
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return entities.Book{}, false
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides the time source used for id assignment.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// Store owns the canonical ordered sequence of books and mirrors it to
// snapshot storage after every mutation. The sequence is replaced, never
// modified in place, so snapshots handed out earlier stay valid.
type Store struct {
	mu      sync.Mutex
	storage ports.SnapshotStorage
	key     string
	logger  *logger.Logger
	now     func() time.Time

	books   []entities.Book
	version uint64
	lastID  int64

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates an empty store bound to one storage key. Call Load to
// pick up a previously persisted snapshot.
func NewStore(storage ports.SnapshotStorage, key string, logger *logger.Logger, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		key:     key,
		logger:  logger.WithComponent("store"),
		now:     time.Now,
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory sequence with the persisted snapshot. A missing
// key yields an empty store.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, ports.ErrKeyNotFound) {
		data = nil
	} else if err != nil {
		return fmt.Errorf("load snapshot %q: %w", s.key, err)
	}

	var books []entities.Book
	if len(data) > 0 {
		if err := json.Unmarshal(data, &books); err != nil {
			return fmt.Errorf("load snapshot %q: %w: %v", s.key, entities.ErrMalformedSnapshot, err)
		}
	}

	s.mu.Lock()
	s.books = books
	s.version++
	s.lastID = 0
	for _, b := range books {
		if b.ID > s.lastID {
			s.lastID = b.ID
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Infow("Snapshot loaded", "key", s.key, "books", len(books))
	s.notify(snap)
	return nil
}

// Add assigns a fresh id, prepends the book and persists.
func (s *Store) Add(ctx context.Context, book entities.Book) (entities.Book, error) {
	s.mu.Lock()
	book.ID = s.nextID()

	next := make([]entities.Book, 0, len(s.books)+1)
	next = append(next, book)
	next = append(next, s.books...)

	snap, err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.logger.LogBookMutation("add", book.ID, book.Title, snap.Len())
	s.notify(snap)
	return book, err
}

// Update replaces the record with the given id, keeping its position.
func (s *Store) Update(ctx context.Context, id int64, book entities.Book) (entities.Book, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return entities.Book{}, fmt.Errorf("update book %d: %w", id, entities.ErrBookNotFound)
	}

	book.ID = id
	next := make([]entities.Book, len(s.books))
	copy(next, s.books)
	next[idx] = book

	snap, err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	s.logger.LogBookMutation("update", id, book.Title, snap.Len())
	s.notify(snap)
	return book, err
}

// Delete removes the record with the given id. Deleting an unknown id is a
// no-op, but the snapshot is still rewritten. The bool reports whether a
// record was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	next := make([]entities.Book, 0, len(s.books))
	removed := false
	for _, b := range s.books {
		if b.ID == id {
			removed = true
			continue
		}
		next = append(next, b)
	}

	snap, err := s.commitLocked(ctx, next)
	s.mu.Unlock()

	if removed {
		s.logger.LogBookMutation("delete", id, "", snap.Len())
	}
	s.notify(snap)
	return removed, err
}

// Get returns the record with the given id
func (s *Store) Get(id int64) (entities.Book, error) {
	b, ok := s.Snapshot().Find(id)
	if !ok {
		return entities.Book{}, fmt.Errorf("book %d: %w", id, entities.ErrBookNotFound)
	}
	return b, nil
}

// Snapshot returns the current immutable state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to run after every load and mutation. fn runs
// synchronously on the mutating goroutine and must not mutate the store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Ping checks the snapshot storage
func (s *Store) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// commitLocked installs next as the current sequence and persists it. The
// in-memory state changes even when persisting fails.
func (s *Store) commitLocked(ctx context.Context, next []entities.Book) (Snapshot, error) {
	s.books = next
	s.version++
	err := s.persistLocked(ctx)
	return s.snapshotLocked(), err
}

// persistLocked writes the whole sequence, or removes the key when empty.
func (s *Store) persistLocked(ctx context.Context) error {
	if len(s.books) == 0 {
		err := s.storage.Remove(ctx, s.key)
		s.logger.LogSnapshotWrite(s.key, 0, true, err)
		if err != nil {
			return fmt.Errorf("remove snapshot %q: %w", s.key, err)
		}
		return nil
	}

	data, err := json.Marshal(s.books)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	err = s.storage.Set(ctx, s.key, data)
	s.logger.LogSnapshotWrite(s.key, len(data), false, err)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.key, err)
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{books: s.books, version: s.version}
}

func (s *Store) indexLocked(id int64) int {
	for i, b := range s.books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// nextID derives an id from the clock in milliseconds, bumped past the last
// assigned id when the clock has not advanced.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) notify(snap Snapshot) {
	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
