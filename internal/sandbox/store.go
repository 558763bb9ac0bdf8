package sandbox

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// Store keeps sandbox records in memory, grouped by collection. Records are
// copied on the way in and out so handlers never share maps.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	now         func() time.Time
	collections map[string]map[int64]map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		collections: make(map[string]map[int64]map[string]any),
	}
}

func (s *Store) collection(name string) map[int64]map[string]any {
	col, ok := s.collections[name]
	if !ok {
		col = make(map[int64]map[string]any)
		s.collections[name] = col
	}
	return col
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Insert stores fields as a new record and returns it with its id and
// timestamps set.
func (s *Store) Insert(collection string, fields map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := maps.Clone(fields)
	if rec == nil {
		rec = make(map[string]any)
	}
	rec["id"] = s.nextID
	rec["created_at"] = s.timestamp()
	rec["updated_at"] = rec["created_at"]
	s.collection(collection)[s.nextID] = rec
	return maps.Clone(rec)
}

// Put creates or replaces the fields of the record with the given id.
func (s *Store) Put(collection string, id int64, fields map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collection(collection)
	rec, ok := col[id]
	if !ok {
		rec = map[string]any{"id": id, "created_at": s.timestamp()}
		col[id] = rec
		if id > s.nextID {
			s.nextID = id
		}
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	rec["updated_at"] = s.timestamp()
	return maps.Clone(rec)
}

// Get returns a copy of a record.
func (s *Store) Get(collection string, id int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collection(collection)[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(rec), true
}

// List returns copies of all records of a collection, ordered by id.
func (s *Store) List(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collection(collection)
	ids := slices.Sorted(maps.Keys(col))
	recs := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, maps.Clone(col[id]))
	}
	return recs
}

// Update merges fields into an existing record.
func (s *Store) Update(collection string, id int64, fields map[string]any) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collection(collection)[id]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}
		rec[k] = v
	}
	rec["updated_at"] = s.timestamp()
	return maps.Clone(rec), true
}

// Delete removes a record and returns it.
func (s *Store) Delete(collection string, id int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.collection(collection)
	rec, ok := col[id]
	if !ok {
		return nil, false
	}
	delete(col, id)
	return rec, true
}
