package command

import (
	"sync"

	"github.com/google/uuid"
)

type sessionKey struct {
	guildID string
	userID  string
}

// Session is one user's in-flight prompt conversation. Replies from that
// user are routed here instead of the command dispatcher until the session
// ends.
type Session struct {
	ID      string
	replies chan string
}

// Sessions tracks in-flight prompts keyed by user and guild, replacing the
// process-global "awaiting" set: two guilds can prompt the same user
// independently, and teardown is always explicit.
type Sessions struct {
	mu     sync.Mutex
	active map[sessionKey]*Session
}

func NewSessions() *Sessions {
	return &Sessions{active: map[sessionKey]*Session{}}
}

// Begin opens a session for the user, or reports false when one is already
// in flight.
func (s *Sessions) Begin(guildID, userID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey{guildID, userID}
	if _, busy := s.active[key]; busy {
		return nil, false
	}
	sess := &Session{ID: uuid.NewString(), replies: make(chan string, 8)}
	s.active[key] = sess
	return sess, true
}

func (s *Sessions) End(guildID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, sessionKey{guildID, userID})
}

// Deliver routes a message to the user's session if one is in flight and
// reports whether it was consumed.
func (s *Sessions) Deliver(guildID, userID, content string) bool {
	s.mu.Lock()
	sess, ok := s.active[sessionKey{guildID, userID}]
	s.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case sess.replies <- content:
	default:
		// A full buffer means the prompt flow is not consuming; drop
		// rather than block the gateway.
	}
	return true
}
