package expiry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gatherbot/gatherbot/internal/bus"
	"github.com/gatherbot/gatherbot/internal/fault"
	"github.com/gatherbot/gatherbot/internal/utils"
	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/platform"
	"github.com/gatherbot/gatherbot/pkg/render"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler finalizes events once their date plus the grace period has
// passed. One-shot timers cover the common case; a periodic sweep over the
// unexpired rows re-arms timers after a restart and catches anything a timer
// missed, so no single in-process timer is load-bearing.
type Scheduler struct {
	events   event.Repo
	guilds   guild.Repo
	chat     platform.Chat
	renderer *render.Renderer
	notes    *bus.Bus
	clock    utils.Clock
	grace    time.Duration

	cron   *cron.Cron
	mu     sync.Mutex
	timers map[int]*time.Timer
}

func New(events event.Repo, guilds guild.Repo, chat platform.Chat,
	renderer *render.Renderer, notes *bus.Bus, grace time.Duration) *Scheduler {
	return &Scheduler{
		events:   events,
		guilds:   guilds,
		chat:     chat,
		renderer: renderer,
		notes:    notes,
		clock:    utils.SystemClock{},
		grace:    grace,
		timers:   map[int]*time.Timer{},
	}
}

// Start runs a recovery sweep immediately and then on the given cron spec
// (e.g. "@every 10m").
func (s *Scheduler) Start(sweepSpec string) error {
	ctx := context.Background()
	if err := s.Sweep(ctx); err != nil {
		log.Errorf("initial expiry sweep failed: %v", err)
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(sweepSpec, func() {
		if err := s.Sweep(context.Background()); err != nil {
			log.Errorf("expiry sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep spec %q: %w", sweepSpec, err)
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Schedule arms the one-shot for event date + grace. Called once at event
// creation and again by the sweep after restarts; re-arming an already armed
// event is a no-op.
func (s *Scheduler) Schedule(e event.Event) {
	delay := e.Date.Add(s.grace).Sub(s.clock.Now())
	if delay <= 0 {
		go s.expireAsync(e.ID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, armed := s.timers[e.ID]; armed {
		return
	}
	id := e.ID
	s.timers[id] = time.AfterFunc(delay, func() { s.expireAsync(id) })
}

func (s *Scheduler) expireAsync(eventID int) {
	if err := s.Expire(context.Background(), eventID); err != nil {
		log.Errorf("could not expire event %d: %v", eventID, err)
	}
}

// Expire marks the event expired, deletes its role exactly once and
// re-renders the summary in its terminal state. Idempotent: a second run
// only re-saves the flag.
func (s *Scheduler) Expire(ctx context.Context, eventID int) error {
	s.mu.Lock()
	if t, ok := s.timers[eventID]; ok {
		t.Stop()
		delete(s.timers, eventID)
	}
	s.mu.Unlock()

	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}

	if err := s.events.SetExpired(ctx, eventID); err != nil {
		return fmt.Errorf("failed to mark event %d expired: %w", eventID, err)
	}

	if e.RoleID != "" {
		if err := s.chat.DeleteRole(ctx, e.GuildID, e.RoleID); err != nil && !fault.IsNotFound(err) {
			log.Errorf("could not delete role %s for expired event %d: %v", e.RoleID, eventID, err)
		}
		if err := s.events.ClearRole(ctx, eventID); err != nil {
			log.Errorf("could not clear role on expired event %d: %v", eventID, err)
		}
	}

	s.refreshSummary(ctx, eventID)

	if !e.Expired {
		log.Infof("event %d (%q) expired", e.ID, e.Name)
		s.notes.Publish(ctx, bus.EventExpired, bus.EventRef{EventID: e.ID, GuildID: e.GuildID, Name: e.Name})
	}
	return nil
}

// Sweep expires everything past due and re-arms timers for the rest. This is
// what makes expiry survive process restarts: the event row itself is the
// durable schedule.
func (s *Scheduler) Sweep(ctx context.Context) error {
	events, err := s.events.FindUnexpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unexpired events: %w", err)
	}
	now := s.clock.Now()
	for _, e := range events {
		if !e.Date.Add(s.grace).After(now) {
			if err := s.Expire(ctx, e.ID); err != nil {
				log.Errorf("sweep could not expire event %d: %v", e.ID, err)
			}
			continue
		}
		s.Schedule(e)
	}
	return nil
}

func (s *Scheduler) refreshSummary(ctx context.Context, eventID int) {
	post, err := s.events.FindPostByEvent(ctx, eventID)
	if err != nil || post == nil {
		return
	}
	fresh, err := s.events.FindByID(ctx, eventID)
	if err != nil || fresh == nil {
		return
	}
	g, err := s.guilds.FindOrCreate(ctx, fresh.GuildID)
	if err != nil {
		log.Errorf("could not load guild %s for expiry render: %v", fresh.GuildID, err)
		return
	}
	embed := s.renderer.Render(ctx, g, *fresh)
	if err := s.chat.EditEmbed(ctx, post.ChannelID, post.MessageID, embed); err != nil {
		log.Errorf("could not edit summary for expired event %d: %v", eventID, err)
	}
}

// WithClock replaces the clock, for tests.
func (s *Scheduler) WithClock(c utils.Clock) *Scheduler {
	s.clock = c
	return s
}
