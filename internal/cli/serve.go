package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rustyeddy/forexai/analysis"
	"github.com/rustyeddy/forexai/config"
	"github.com/rustyeddy/forexai/feed"
	"github.com/rustyeddy/forexai/identity"
	"github.com/rustyeddy/forexai/internal/logging"
	"github.com/rustyeddy/forexai/internal/server"
	"github.com/rustyeddy/forexai/journal"
	"github.com/rustyeddy/forexai/market/synth"
	"github.com/rustyeddy/forexai/session"
	"github.com/rustyeddy/forexai/view"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	sweepInterval = time.Minute
	sweepTimeout  = 10 * time.Second
	visitorIdle   = 24 * time.Hour
)

func newServeCmd(ro *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			log, err := ro.logger(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			a.scheduler.Start()
			defer a.scheduler.Stop()
			return a.server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

// app is the wired service.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	journal   *journal.SQLite
	memory    *session.MemoryStore
	redis     *redis.Client
	sessions  *session.Manager
	server    *server.Server
	scheduler *feed.Scheduler
}

func build(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	a.journal = j
	if cfg.Journal.Seed {
		n, err := j.Seed(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed journal: %w", err)
		}
		if n > 0 {
			log.WithField("records", n).Info("seeded demo history")
		}
	}

	var idp identity.Provider
	switch cfg.Identity.Provider {
	case "remote":
		idp = identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey)
	default:
		idp = identity.NewLocal(cfg.Identity.BcryptCost)
	}

	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		rc, err := session.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rc
		store = session.NewRedisStore(rc)
	default:
		a.memory = session.NewMemoryStore(nil)
		store = a.memory
	}
	ttl := cfg.SessionTTL()
	a.sessions = session.NewManager(store, ttl, nil)

	gen := synth.NewGenerator(cfg.Feed.Seed)
	dashboards := feed.NewDashboards(gen, nil)

	acfg := analysis.DefaultConfig()
	for name, d := range cfg.Delays() {
		acfg.Delays[analysis.Depth(name)] = d
	}
	if cfg.Analysis.Candles > 0 {
		acfg.Candles = cfg.Analysis.Candles
	}
	acfg.MaxUpload = int64(cfg.Analysis.MaxUploadMB) << 20
	acfg.Account = analysis.Account{Equity: cfg.Analysis.Equity, RiskPct: cfg.Analysis.RiskPercent}
	runner := analysis.NewRunner(analysis.SynthSource{Gen: gen}, j, acfg, logging.Component(log, "analysis"))

	a.server = server.New(server.Deps{
		Identity:   idp,
		Sessions:   a.sessions,
		Tokens:     session.NewTokens(cfg.Session.Secret, cfg.Session.Issuer),
		Journal:    j,
		Views:      view.NewStates(cfg.Server.DevNav, nil),
		Dashboards: dashboards,
		Workflows:  analysis.NewWorkflows(runner),
		Log:        log,
	}, server.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookies:  cfg.Server.SecureCookies,
		DevNav:         cfg.Server.DevNav,
		SessionTTL:     ttl,
		MaxUpload:      acfg.MaxUpload,
	})

	a.scheduler = feed.NewScheduler(dashboards, logging.Component(log, "feed"))
	tick, slide := cfg.Intervals()
	if err := a.scheduler.Register(tick, slide); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.scheduler.Every(sweepInterval, "session sweep", a.sweep); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// sweep ends expired sessions and forgets idle visitors. The memory
// store reports what it dropped; anything else still holding a dashboard
// is checked against the store, which covers keys Redis expired.
func (a *app) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	var expired []string
	if a.memory != nil {
		expired = a.memory.Sweep()
		a.sessions.Expire(expired)
	}
	pruned := a.server.SweepSessions(ctx)
	visitors := a.server.SweepVisitors(visitorIdle)
	if len(expired) > 0 || pruned > 0 || visitors > 0 {
		a.log.WithFields(logrus.Fields{
			"sessions": len(expired) + pruned,
			"visitors": visitors,
		}).Debug("swept")
	}
}

func (a *app) Close() {
	if a.server != nil {
		a.server.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("close redis")
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.WithError(err).Warn("close journal")
		}
	}
}
