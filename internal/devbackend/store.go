package devbackend

import (
	"errors"
	"sort"
	"strconv"
	"sync"
)

var errRecordNotFound = errors.New("record not found")

// Record is a stored admin object.
type Record = map[string]any

// ResourceStore is the in-memory data behind the admin API.
// Collections are keyed by resource name; settings is a single object.
type ResourceStore struct {
	mu       sync.RWMutex
	data     map[string]map[string]Record
	settings Record
	nextID   int
}

// NewResourceStore creates a store with a small seed dataset.
func NewResourceStore() *ResourceStore {
	s := &ResourceStore{
		data:     map[string]map[string]Record{},
		settings: Record{"siteName": "E-Learning", "allowRegistration": true},
	}
	for _, seed := range []struct {
		resource string
		record   Record
	}{
		{"courses", Record{"title": "Introduction to Go", "status": "published"}},
		{"courses", Record{"title": "Distributed Systems", "status": "draft"}},
		{"students", Record{"name": "Ada Lovelace", "email": "ada@example.com"}},
		{"teachers", Record{"name": "Grace Hopper", "email": "grace@example.com"}},
		{"schedules", Record{"course": "Introduction to Go", "day": "Monday"}},
	} {
		s.create(seed.resource, seed.record)
	}
	return s
}

// List returns a collection ordered by id.
func (s *ResourceStore) List(resource string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.data[resource]
	out := make([]Record, 0, len(coll))
	for _, rec := range coll {
		out = append(out, clone(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i]["id"].(string))
		b, _ := strconv.Atoi(out[j]["id"].(string))
		return a < b
	})
	return out
}

// Get returns one record.
func (s *ResourceStore) Get(resource, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[resource][id]
	if !ok {
		return nil, errRecordNotFound
	}
	return clone(rec), nil
}

// Create stores rec under a new id.
func (s *ResourceStore) Create(resource string, rec Record) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.create(resource, rec))
}

func (s *ResourceStore) create(resource string, rec Record) Record {
	s.nextID++
	stored := clone(rec)
	stored["id"] = strconv.Itoa(s.nextID)
	if s.data[resource] == nil {
		s.data[resource] = map[string]Record{}
	}
	s.data[resource][stored["id"].(string)] = stored
	return stored
}

// Update merges fields into an existing record.
func (s *ResourceStore) Update(resource, id string, fields Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[resource][id]
	if !ok {
		return nil, errRecordNotFound
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	return clone(rec), nil
}

// Delete removes a record.
func (s *ResourceStore) Delete(resource, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[resource][id]; !ok {
		return errRecordNotFound
	}
	delete(s.data[resource], id)
	return nil
}

// Settings returns the settings object.
func (s *ResourceStore) Settings() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.settings)
}

// UpdateSettings merges fields into the settings object.
func (s *ResourceStore) UpdateSettings(fields Record) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range fields {
		s.settings[k] = v
	}
	return clone(s.settings)
}

// Overview summarises collection sizes for the dashboard.
func (s *ResourceStore) Overview() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Record{
		"courses":  len(s.data["courses"]),
		"students": len(s.data["students"]),
		"teachers": len(s.data["teachers"]),
	}
}

func clone(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
