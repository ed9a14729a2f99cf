package mapping

import (
	"fmt"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

type (
	// Entry pairs a code with the original file name it was issued for.
	Entry struct {
		Code     string `json:"code"     parquet:"code"`
		Identity string `json:"identity" parquet:"identity"`
	}

	// Store is the in-memory mapping for one run: everything loaded from the
	// prior snapshot followed by the entries added since. Entries are only
	// ever appended; codes form a set for the life of the store.
	//
	// A Store is owned by a single run. Its methods are safe for concurrent
	// use so the pipeline can hand it to materialization workers.
	Store struct {
		mu      sync.RWMutex
		entries []Entry
		pos     map[string]int
		codes   mapset.Set[string]
		widths  map[int]int64
		loaded  int
		source  string
	}
)

// Index is the read view a Generator needs to avoid collisions.
type Index interface {
	Contains(code string) bool
	CountWidth(width int) int64
}

// Generator produces a code of the given width that known does not contain.
type Generator interface {
	Next(length int, known Index) (string, error)
}

// NewStore returns an empty store with no prior snapshot.
func NewStore() *Store {
	return &Store{
		pos:    make(map[string]int),
		codes:  mapset.NewThreadUnsafeSet[string](),
		widths: make(map[int]int64),
	}
}

// Source returns the snapshot path the store was loaded from, or "".
func (s *Store) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Contains reports whether code has ever been issued in this store's lineage.
func (s *Store) Contains(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codes.Contains(code)
}

// CountWidth returns how many known codes have exactly width digits.
func (s *Store) CountWidth(width int) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.widths[width]
}

// Insert appends e. Inserting a code that is already present is a
// programming error and panics.
func (s *Store) Insert(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(e)
}

func (s *Store) insertLocked(e Entry) {
	if s.codes.Contains(e.Code) {
		panic(fmt.Sprintf("mapping: code %q inserted twice", e.Code))
	}
	s.pos[e.Code] = len(s.entries)
	s.entries = append(s.entries, e)
	s.codes.Add(e.Code)
	s.widths[len(e.Code)]++
}

// Assign draws a fresh code from gen and records it for identity in one
// critical section, so no two callers can be handed the same code.
func (s *Store) Assign(gen Generator, length int, identity string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, err := gen.Next(length, lockedView{s})
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Code: code, Identity: identity}
	s.insertLocked(e)
	return e, nil
}

// Discard removes an entry added during this run, used when its copy could
// not be materialized. Entries loaded from the prior snapshot cannot be
// discarded. It reports whether an entry was removed.
func (s *Store) Discard(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.pos[code]
	if !ok || i < s.loaded {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	delete(s.pos, code)
	for j := i; j < len(s.entries); j++ {
		s.pos[s.entries[j].Code] = j
	}
	s.codes.Remove(code)
	s.widths[len(code)]--
	return true
}

// Lookup returns the entry for code. This is the decode direction.
func (s *Store) Lookup(code string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.pos[code]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Len returns the total number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Loaded returns how many entries came from the prior snapshot.
func (s *Store) Loaded() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Added returns the entries appended since the store was loaded.
func (s *Store) Added() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries[s.loaded:])
}

// Entries returns a copy of all entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Iterate yields entries in insertion order over a copy taken at call time.
func (s *Store) Iterate(yield func(Entry) bool) {
	for _, e := range s.Entries() {
		if !yield(e) {
			return
		}
	}
}

// lockedView exposes the index to a Generator while Assign holds the lock.
type lockedView struct{ s *Store }

func (v lockedView) Contains(code string) bool  { return v.s.codes.Contains(code) }
func (v lockedView) CountWidth(width int) int64 { return v.s.widths[width] }
