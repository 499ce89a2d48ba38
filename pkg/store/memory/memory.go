package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/joeydtaylor/steeze-social/pkg/store"
)

// Store is an in-memory implementation of store.Backend. It is safe for
// concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	seq    int64
	tables map[string]map[string]entry
}

type entry struct {
	seq int64
	doc []byte
}

var _ store.Backend = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string]map[string]entry)}
}

func (s *Store) tableLocked(coll string) map[string]entry {
	t, ok := s.tables[coll]
	if !ok {
		t = make(map[string]entry)
		s.tables[coll] = t
	}
	return t
}

func (s *Store) Insert(_ context.Context, coll, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tableLocked(coll)
	if _, exists := t[id]; exists {
		return store.ErrExists
	}
	s.seq++
	t[id] = entry{seq: s.seq, doc: clone(doc)}
	return nil
}

func (s *Store) Get(_ context.Context, coll, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.tables[coll][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(e.doc), nil
}

func (s *Store) Find(_ context.Context, coll string, f store.Filter) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entry, 0, len(s.tables[coll]))
	for _, e := range s.tables[coll] {
		ok, err := f.Match(e.doc)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([][]byte, 0, len(entries))
	for _, e := range entries {
		out = append(out, clone(e.doc))
	}
	return out, nil
}

func (s *Store) Replace(_ context.Context, coll, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[coll]
	e, ok := t[id]
	if !ok {
		return store.ErrNotFound
	}
	e.doc = clone(doc)
	t[id] = e
	return nil
}

func (s *Store) Mutate(_ context.Context, coll, id string, fn func([]byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[coll]
	e, ok := t[id]
	if !ok {
		return store.ErrNotFound
	}
	next, err := fn(clone(e.doc))
	if err != nil {
		return err
	}
	e.doc = clone(next)
	t[id] = e
	return nil
}

func (s *Store) Delete(_ context.Context, coll, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[coll]
	if _, ok := t[id]; !ok {
		return store.ErrNotFound
	}
	delete(t, id)
	return nil
}

func (s *Store) DeleteWhere(_ context.Context, coll string, f store.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[coll]
	n := 0
	for id, e := range t {
		ok, err := f.Match(e.doc)
		if err != nil {
			return n, err
		}
		if ok {
			delete(t, id)
			n++
		}
	}
	return n, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
