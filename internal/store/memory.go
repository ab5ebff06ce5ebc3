package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps collections in process memory. It exists for tests and
// for running the service without a Qdrant instance; it honors the same
// contract as the Qdrant store.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// Collection implements Store.
func (s *MemoryStore) Collection(_ context.Context, name string) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[name]
	if !ok {
		col = &memoryCollection{records: make(map[string]Record)}
		s.collections[name] = col
	}
	return col, nil
}

type memoryCollection struct {
	mu      sync.Mutex
	records map[string]Record
}

// Get implements Collection.
func (c *memoryCollection) Get(_ context.Context, ids []string) ([]Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Record
	for _, id := range ids {
		if rec, ok := c.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Add implements Collection.
func (c *memoryCollection) Add(_ context.Context, records []Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		if _, ok := c.records[r.ID]; ok {
			return fmt.Errorf("record %q already exists", r.ID)
		}
	}
	for _, r := range records {
		c.records[r.ID] = r
	}
	return nil
}

// Delete implements Collection.
func (c *memoryCollection) Delete(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.records, id)
	}
	return nil
}

// Len reports how many records the collection holds. Test helper.
func (c *memoryCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
