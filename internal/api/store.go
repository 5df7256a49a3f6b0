package api

import (
	"sync"
	"time"

	"github.com/samcharles93/nnetio/internal/nnet"
)

const defaultStoreCapacity = 256

// Inspection is a stored result of one inspect request.
type Inspection struct {
	ID        string       `json:"id"`
	CreatedAt int64        `json:"created_at"`
	Size      int          `json:"size"`
	Model     nnet.Summary `json:"model"`
}

// InspectionStore keeps the most recent inspections in memory. When full, the
// oldest entry is evicted.
type InspectionStore struct {
	mu    sync.Mutex
	cap   int
	order []string
	items map[string]Inspection
}

// NewInspectionStore keeps at most capacity records; a non-positive
// capacity selects the default of 256.
func NewInspectionStore(capacity int) *InspectionStore {
	if capacity <= 0 {
		capacity = defaultStoreCapacity
	}
	return &InspectionStore{
		cap:   capacity,
		items: make(map[string]Inspection),
	}
}

// Put stores a record under id, replacing any previous one, and returns it.
func (s *InspectionStore) Put(id string, size int, sum nnet.Summary, now time.Time) Inspection {
	rec := Inspection{ID: id, CreatedAt: now.Unix(), Size: size, Model: sum}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = rec
	for len(s.order) > s.cap {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	return rec
}

// Get returns the record stored under id.
func (s *InspectionStore) Get(id string) (Inspection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[id]
	return rec, ok
}

// Delete removes id and reports whether it was present.
func (s *InspectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of stored records.
func (s *InspectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
