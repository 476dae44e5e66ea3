package event

import (
	"context"
	"sync"
	"time"

	"github.com/gatherbot/gatherbot/internal/fault"
)

// StubRepo is an in-memory Repo for tests. It enforces the same per-guild
// name uniqueness and per-(event,user) participant exclusivity the SQL schema
// does.
type StubRepo struct {
	mu     sync.Mutex
	nextID int
	Events map[int]*Event
	Posts  []EventPost

	FailSetParticipant error
}

func NewStubRepo() *StubRepo {
	return &StubRepo{Events: map[int]*Event{}}
}

func (s *StubRepo) Create(ctx context.Context, e Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Events {
		if existing.GuildID == e.GuildID && existing.Name == e.Name {
			return Event{}, fault.Conflict("event %q already scheduled in guild %s", e.Name, e.GuildID)
		}
	}
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = time.Now()
	e.Participants = nil
	stored := e
	s.Events[e.ID] = &stored
	return e, nil
}

func (s *StubRepo) FindByID(ctx context.Context, id int) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.Events[id]
	if !ok {
		return nil, nil
	}
	return copyEvent(e), nil
}

func (s *StubRepo) FindByName(ctx context.Context, guildID, name string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.Events {
		if e.GuildID == guildID && e.Name == name {
			return copyEvent(e), nil
		}
	}
	return nil, nil
}

func (s *StubRepo) FindUnexpired(ctx context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []Event
	for _, e := range s.Events {
		if !e.Expired {
			events = append(events, *copyEvent(e))
		}
	}
	return events, nil
}

func (s *StubRepo) Delete(ctx context.Context, guildID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.Events {
		if e.GuildID == guildID && e.Name == name {
			delete(s.Events, id)
		}
	}
	return nil
}

func (s *StubRepo) SetExpired(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.Events[id]; ok {
		e.Expired = true
	}
	return nil
}

func (s *StubRepo) SetRole(ctx context.Context, id int, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.Events[id]; ok {
		e.RoleID = roleID
	}
	return nil
}

func (s *StubRepo) ClearRole(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.Events[id]; ok {
		e.RoleID = ""
	}
	return nil
}

func (s *StubRepo) SetParticipant(ctx context.Context, eventID int, userID string, d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSetParticipant != nil {
		return s.FailSetParticipant
	}
	e, ok := s.Events[eventID]
	if !ok {
		return fault.NotFound("event %d", eventID)
	}
	for i, p := range e.Participants {
		if p.UserID == userID {
			e.Participants[i].Decision = d
			return nil
		}
	}
	e.Participants = append(e.Participants, Participant{UserID: userID, Decision: d})
	return nil
}

func (s *StubRepo) RemoveParticipant(ctx context.Context, eventID int, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.Events[eventID]
	if !ok {
		return nil
	}
	kept := e.Participants[:0]
	for _, p := range e.Participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	e.Participants = kept
	return nil
}

func (s *StubRepo) StorePost(ctx context.Context, p EventPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Posts = append(s.Posts, p)
	return nil
}

func (s *StubRepo) FindPostByMessage(ctx context.Context, messageID string) (*EventPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Posts {
		if p.MessageID == messageID {
			post := p
			return &post, nil
		}
	}
	return nil, nil
}

func (s *StubRepo) FindPostByEvent(ctx context.Context, eventID int) (*EventPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Posts {
		if p.EventID == eventID {
			post := p
			return &post, nil
		}
	}
	return nil, nil
}

func copyEvent(e *Event) *Event {
	c := *e
	c.Participants = append([]Participant(nil), e.Participants...)
	return &c
}
