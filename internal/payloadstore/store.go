// Package payloadstore tracks the worker's in-memory payload table. Unlike
// the orchestrator's jobs, payloads are not durable (spec §5.2: a worker
// restart drops all in-flight payloads; the orchestrator's Getter then
// gets 404 for them, marks those jobs Unknown and keeps polling; nothing
// resubmits them).
package payloadstore

import (
	"fmt"
	"sync"

	"github.com/jobmesh/jobmesh/internal/models"
)

// Store is a mutex-guarded map of payload id to Payload, with a
// monotonically increasing id counter.
type Store struct {
	mu      sync.RWMutex
	nextID  int
	entries map[int]*models.Payload
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[int]*models.Payload)}
}

// Create allocates a new Payload in Prepared state rooted at loc and
// returns its id.
func (s *Store) Create(loc string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.entries[id] = &models.Payload{ID: id, Status: models.PayloadPrepared, Loc: loc}
	return id
}

// Get returns the payload with id, or an error if it does not exist.
func (s *Store) Get(id int) (*models.Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("payloadstore: payload %d not found", id)
	}
	copy := *p
	return &copy, nil
}

// SetStatus transitions a payload to status.
func (s *Store) SetStatus(id int, status models.PayloadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("payloadstore: payload %d not found", id)
	}
	p.Status = status
	return nil
}

// List returns every tracked payload.
func (s *Store) List() []*models.Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Payload, 0, len(s.entries))
	for _, p := range s.entries {
		copy := *p
		out = append(out, &copy)
	}
	return out
}
