package app

import (
	"github.com/bwmarrin/discordgo"
	"github.com/gatherbot/gatherbot/internal/bus"
	"github.com/gatherbot/gatherbot/internal/config"
	"github.com/gatherbot/gatherbot/internal/discord"
	"github.com/gatherbot/gatherbot/internal/metrics"
	"github.com/gatherbot/gatherbot/internal/utils"
	"github.com/gatherbot/gatherbot/pkg/command"
	"github.com/gatherbot/gatherbot/pkg/event"
	"github.com/gatherbot/gatherbot/pkg/expiry"
	"github.com/gatherbot/gatherbot/pkg/guild"
	"github.com/gatherbot/gatherbot/pkg/lookup"
	"github.com/gatherbot/gatherbot/pkg/render"
	"github.com/gatherbot/gatherbot/pkg/rsvp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Dependencies holds all services of the application.
type Dependencies struct {
	GuildRepo    guild.Repo
	GuildService guild.Service

	EventRepo    event.Repo
	EventService event.Service

	Platform *discord.Platform
	Renderer *render.Renderer
	Lookup   *lookup.Lookup

	Bus     *bus.Bus
	Metrics *metrics.Metrics

	Scheduler  *expiry.Scheduler
	Reconciler *rsvp.Reconciler
	Commands   *command.Service
	Gateway    *discord.Gateway

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services.
func BuildDependencies(db *pgxpool.Pool, rdb *redis.Client, session *discordgo.Session, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = utils.SystemClock{}

	deps.GuildRepo = guild.NewRepo(db)
	deps.GuildService = guild.NewService(deps.GuildRepo)

	deps.EventRepo = event.NewRepo(db)
	deps.EventService = event.NewService(deps.EventRepo, deps.GuildRepo)

	deps.Platform = discord.NewPlatform(session)
	deps.Renderer = render.New(deps.Platform, render.Colors(cfg.Colors), render.Glyphs{
		Going:    cfg.Discord.Emoji.Going,
		NotGoing: cfg.Discord.Emoji.NotGoing,
		Unsure:   cfg.Discord.Emoji.Unsure,
	})
	deps.Lookup = lookup.New(lookup.NewRedisCache(rdb), deps.EventRepo)

	deps.Bus = bus.New()
	deps.Metrics = metrics.New()
	deps.Metrics.Observe(deps.Bus)

	deps.Scheduler = expiry.New(deps.EventRepo, deps.GuildRepo, deps.Platform, deps.Renderer, deps.Bus, cfg.Events.ExpiryGrace)

	emoji := rsvp.EmojiMap{
		Going:    cfg.Discord.Emoji.Going,
		NotGoing: cfg.Discord.Emoji.NotGoing,
		Unsure:   cfg.Discord.Emoji.Unsure,
		Remove:   cfg.Discord.Emoji.Remove,
	}
	deps.Reconciler = rsvp.New(deps.EventRepo, deps.GuildRepo, deps.Lookup, deps.Platform, deps.Renderer, deps.Bus, emoji)

	deps.Commands = command.NewService(command.Config{
		Prefix:        cfg.Discord.Prefix,
		PromptTimeout: cfg.Events.PromptTimeout,
		ExampleColor:  cfg.Colors.Example,
	}, deps.EventService, deps.GuildService, deps.Platform, deps.Renderer, deps.Lookup, deps.Scheduler, deps.Bus, emoji)

	deps.Gateway = discord.NewGateway(session, deps.Commands, deps.Reconciler, deps.Metrics)

	return deps
}
