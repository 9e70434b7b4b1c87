package state

import (
	"sync"

	"github.com/samber/do"
)

// Batch is the in-progress batch of a single conversation. A zero
// Batch means no batch is open.
type Batch struct {
	Number  string
	Weights []float64
}

func (b Batch) Open() bool {
	return b.Number != ""
}

// Store maps chat IDs to their open batch. Conversations absent from
// the store behave as an empty state. Only the dispatcher mutates it;
// the mutex covers the transport callback goroutine reading alongside
// the engine.
type Store struct {
	mu      sync.RWMutex
	batches map[int64]Batch
}

func New(_ *do.Injector) (*Store, error) {
	return &Store{
		batches: make(map[int64]Batch),
	}, nil
}

func (s *Store) Get(chatID int64) Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.batches[chatID]
}

func (s *Store) Set(chatID int64, b Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[chatID] = b
}

// Remove deletes the conversation's state and returns what was there.
func (s *Store) Remove(chatID int64) (Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[chatID]
	delete(s.batches, chatID)

	return b, ok
}
