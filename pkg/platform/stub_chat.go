package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/gatherbot/gatherbot/internal/fault"
)

// StubChat is an in-memory Chat used by tests. Members maps userID to display
// name; users absent from it resolve as not found. Role membership and posted
// messages are recorded for assertions.
type StubChat struct {
	mu sync.Mutex

	Members     map[string]string
	MemberRoles map[string]map[string]bool // userID -> roleID -> held
	Roles       map[string]bool            // roleID -> exists

	Texts       []string
	Posted      map[string]Embed // messageID -> last posted/edited embed
	Reactions   []string         // "channel/message/emoji"
	Removed     []string         // "channel/message/emoji/user"
	ChannelID   string
	nextID      int
	FailEdit    error
	FailResolve error
}

func NewStubChat() *StubChat {
	return &StubChat{
		Members:     map[string]string{},
		MemberRoles: map[string]map[string]bool{},
		Roles:       map[string]bool{},
		Posted:      map[string]Embed{},
		ChannelID:   "events-channel",
	}
}

func (s *StubChat) DisplayName(ctx context.Context, guildID, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailResolve != nil {
		return "", s.FailResolve
	}
	name, ok := s.Members[userID]
	if !ok {
		return "", fault.NotFound("member %s", userID)
	}
	return name, nil
}

func (s *StubChat) SendText(ctx context.Context, channelID, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Texts = append(s.Texts, content)
	return s.newID(), nil
}

func (s *StubChat) PostEmbed(ctx context.Context, channelID string, embed Embed) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.Posted[id] = embed
	return id, nil
}

func (s *StubChat) EditEmbed(ctx context.Context, channelID, messageID string, embed Embed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEdit != nil {
		return s.FailEdit
	}
	s.Posted[messageID] = embed
	return nil
}

func (s *StubChat) React(ctx context.Context, channelID, messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reactions = append(s.Reactions, channelID+"/"+messageID+"/"+emoji)
	return nil
}

func (s *StubChat) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Removed = append(s.Removed, channelID+"/"+messageID+"/"+emoji+"/"+userID)
	return nil
}

func (s *StubChat) CreateRole(ctx context.Context, guildID, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "role-" + s.newID()
	s.Roles[id] = true
	return id, nil
}

func (s *StubChat) DeleteRole(ctx context.Context, guildID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Roles[roleID] {
		return fault.NotFound("role %s", roleID)
	}
	delete(s.Roles, roleID)
	return nil
}

func (s *StubChat) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Members[userID]; !ok {
		return fault.NotFound("member %s", userID)
	}
	if s.MemberRoles[userID] == nil {
		s.MemberRoles[userID] = map[string]bool{}
	}
	s.MemberRoles[userID][roleID] = true
	return nil
}

func (s *StubChat) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Members[userID]; !ok {
		return fault.NotFound("member %s", userID)
	}
	delete(s.MemberRoles[userID], roleID)
	return nil
}

func (s *StubChat) EventsChannel(ctx context.Context, guildID string) (string, error) {
	return s.ChannelID, nil
}

// HasRole reports whether the user currently holds the role.
func (s *StubChat) HasRole(userID, roleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.MemberRoles[userID][roleID]
}

func (s *StubChat) newID() string {
	s.nextID++
	return fmt.Sprintf("msg-%d", s.nextID)
}
