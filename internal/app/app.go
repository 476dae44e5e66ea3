package app

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gatherbot/gatherbot/internal/config"
	"github.com/gatherbot/gatherbot/internal/database"
	"github.com/gatherbot/gatherbot/pkg/lookup"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, storage, the Discord gateway and the ops
// HTTP server lifecycle.
type Application struct {
	cfg  config.Application
	deps *Dependencies
	db   *pgxpool.Pool
	rdb  *redis.Client
	srv  *http.Server
}

// NewApplication constructs the full application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	// DB + migrations
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}

	rdb, err := lookup.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, err
	}

	deps := BuildDependencies(db, rdb, session, cfg)

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Host,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, db: db, rdb: rdb, srv: srv}, nil
}

// Run connects to Discord, starts the expiry scheduler and serves the ops
// endpoints until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.deps.Gateway.Open(); err != nil {
		return err
	}
	if err := a.deps.Scheduler.Start(a.cfg.Events.SweepSpec); err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("Serving ops endpoints on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		a.shutdown()
		return err
	case <-ctx.Done():
		a.shutdown()
		return nil
	}
}

func (a *Application) shutdown() {
	log.Info("Shutting down")
	a.deps.Scheduler.Stop()
	if err := a.deps.Gateway.Close(); err != nil {
		log.Errorf("error closing Discord session: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(ctx); err != nil {
		log.Errorf("error shutting down HTTP server: %v", err)
	}
	if err := a.rdb.Close(); err != nil {
		log.Errorf("error closing redis client: %v", err)
	}
	a.db.Close()
}
