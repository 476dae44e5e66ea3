package lookup

import (
	"context"
	"sync"
)

type StubCache struct {
	mu      sync.Mutex
	Entries map[string]int
	GetErr  error
}

func NewStubCache() *StubCache {
	return &StubCache{Entries: map[string]int{}}
}

func (s *StubCache) Get(ctx context.Context, messageID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return 0, false, s.GetErr
	}
	id, ok := s.Entries[messageID]
	return id, ok, nil
}

func (s *StubCache) Set(ctx context.Context, messageID string, eventID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries[messageID] = eventID
	return nil
}

func (s *StubCache) Delete(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Entries, messageID)
	return nil
}
