package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatherbot/gatherbot/internal/fault"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/timezone"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Create persists a new event. localDate is the guild-local wall-clock
	// time; it is normalized to the stored instant using the guild's
	// current offset. A duplicate active name is a fault.ErrConflict.
	Create(ctx context.Context, guildID, name, description string, localDate time.Time) (Event, error)
	Get(ctx context.Context, id int) (*Event, error)
	FindByName(ctx context.Context, guildID, name string) (*Event, error)
	// SetRole attaches the platform role created for the event.
	SetRole(ctx context.Context, id int, roleID string) error
	// Rollback removes a partially created event and its participants.
	Rollback(ctx context.Context, guildID, name string) error
}

type ServiceImpl struct {
	repo   Repo
	guilds guild.Repo
}

func NewService(repo Repo, guilds guild.Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo, guilds: guilds}
}

func (s *ServiceImpl) Create(ctx context.Context, guildID, name, description string, localDate time.Time) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, fmt.Errorf("event name must not be empty")
	}

	if existing, err := s.repo.FindByName(ctx, guildID, name); err != nil {
		return Event{}, fmt.Errorf("failed to check for conflicting event: %w", err)
	} else if existing != nil {
		return Event{}, fault.Conflict("event %q already scheduled in guild %s", name, guildID)
	}

	g, err := s.guilds.FindOrCreate(ctx, guildID)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get guild: %w", err)
	}

	e := Event{
		GuildID:     guildID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Date:        timezone.ToStored(localDate, g.UTCOffset),
	}
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return Event{}, err
	}
	log.Infof("created event %d (%q) in guild %s for %s", created.ID, created.Name, guildID, created.Date)
	return created, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (*Event, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ServiceImpl) FindByName(ctx context.Context, guildID, name string) (*Event, error) {
	return s.repo.FindByName(ctx, guildID, strings.TrimSpace(name))
}

func (s *ServiceImpl) SetRole(ctx context.Context, id int, roleID string) error {
	return s.repo.SetRole(ctx, id, roleID)
}

func (s *ServiceImpl) Rollback(ctx context.Context, guildID, name string) error {
	return s.repo.Delete(ctx, guildID, strings.TrimSpace(name))
}
