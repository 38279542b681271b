// Package server exposes the dashboard service over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/forexai/analysis"
	"github.com/rustyeddy/forexai/feed"
	"github.com/rustyeddy/forexai/identity"
	"github.com/rustyeddy/forexai/internal/logging"
	"github.com/rustyeddy/forexai/journal"
	"github.com/rustyeddy/forexai/session"
	"github.com/rustyeddy/forexai/view"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Addr           string
	AllowedOrigins []string
	SecureCookies  bool
	DevNav         bool
	SessionTTL     time.Duration
	MaxUpload      int64
}

// Deps are the components the handlers drive.
type Deps struct {
	Identity   identity.Provider
	Sessions   *session.Manager
	Tokens     *session.Tokens
	Journal    journal.Journal
	Views      *view.States
	Dashboards *feed.Dashboards
	Workflows  *analysis.Workflows
	Log        *logrus.Logger
	Now        func() time.Time
}

type Server struct {
	Deps
	opts   Options
	log    *logrus.Entry
	hub    *Hub
	engine *gin.Engine
	unsub  func()
}

func New(d Deps, opts Options) *Server {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &Server{
		Deps: d,
		opts: opts,
		log:  logging.Component(d.Log, "http"),
	}
	s.hub = NewHub(logging.Component(d.Log, "ws"))
	s.unsub = d.Sessions.Subscribe(s.onSessionEvent)
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.opts.Addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.hub.CloseAll()
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.Gin(s.log))
	_ = r.SetTrustedProxies(nil)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Upgrade", "Connection"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           24 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Use(s.visitor(), s.loadSession())

	auth := r.Group("/auth")
	{
		auth.POST("/signup", s.signUp)
		auth.POST("/login", s.signIn)
		auth.POST("/federated", s.federated)
		auth.POST("/reset", s.sendReset)
		auth.POST("/logout", s.signOut)
		auth.PUT("/profile", s.requireSession(false), s.updateProfile)
		auth.GET("/session", s.currentSession)
	}

	api := r.Group("/api")
	{
		api.GET("/view", s.getView)
		api.POST("/view/navigate", s.navigate)
		api.DELETE("/view/banner", s.dismissBanner)

		forgot := api.Group("/forgot")
		forgot.POST("/method", s.forgotMethod)
		forgot.POST("/request", s.forgotRequest)
		forgot.POST("/continue", s.forgotContinue)
		forgot.POST("/verify", s.forgotVerify)
		forgot.POST("/reset", s.forgotReset)
		forgot.POST("/back", s.forgotBack)
	}

	protected := api.Group("", s.requireSession(true))
	{
		protected.GET("/dashboard", s.getDashboard)
		protected.GET("/candles/:symbol", s.getCandles)
		protected.POST("/dashboard/refresh", s.refresh)
		protected.POST("/dashboard/size", s.setSize)
		protected.POST("/dashboard/timeframe", s.setTimeframe)
		protected.POST("/dashboard/theme", s.toggleTheme)
		protected.POST("/dashboard/volume", s.toggleVolume)
		protected.POST("/dashboard/select", s.selectChart)
		protected.POST("/dashboard/watchlist", s.watch)
		protected.DELETE("/dashboard/watchlist/:symbol", s.unwatch)
		protected.DELETE("/dashboard/notifications/:id", s.dismissNotification)
		protected.GET("/dashboard/export", s.exportDashboard)

		protected.GET("/analysis", s.getAnalysis)
		protected.GET("/analysis/catalog", s.analysisCatalog)
		protected.POST("/analysis/file", s.selectFile)
		protected.DELETE("/analysis/file", s.removeFile)
		protected.GET("/analysis/file", s.getFile)
		protected.PUT("/analysis/options", s.setOptions)
		protected.POST("/analysis/start", s.startAnalysis)

		protected.GET("/history", s.listHistory)
		protected.GET("/history/export", s.exportHistory)
		protected.GET("/history/:id", s.getHistory)
		protected.DELETE("/history/:id", s.deleteHistory)

		protected.GET("/settings", s.getSettings)
		protected.POST("/settings/tab", s.setSettingsTab)
		protected.PUT("/settings/:tab", s.saveSettings)
	}

	r.GET("/ws", s.requireSession(true), s.serveWS)
	return r
}

// SweepVisitors forgets visitors idle for longer than idle, along with
// any demo dashboard or analysis they opened.
func (s *Server) SweepVisitors(idle time.Duration) int {
	gone := s.Views.Sweep(idle)
	for _, id := range gone {
		s.Workflows.Drop(demoKey(id))
		s.Dashboards.Drop(demoKey(id))
	}
	return len(gone)
}

// SweepSessions ends sessions that still hold a dashboard or analysis
// but are gone from the session store, and returns how many it ended.
func (s *Server) SweepSessions(ctx context.Context) int {
	seen := map[string]bool{}
	var ids []string
	for _, k := range append(s.Dashboards.Keys(), s.Workflows.Keys()...) {
		if seen[k] || strings.HasPrefix(k, demoKey("")) {
			continue
		}
		seen[k] = true
		ids = append(ids, k)
	}
	return len(s.Sessions.Prune(ctx, ids))
}

// onSessionEvent keeps per-session state in step with the session
// manager: a signed-out or expired session loses its dashboard, its
// pending analysis and its websocket streams.
func (s *Server) onSessionEvent(e session.Event) {
	switch e.Kind {
	case session.SignedOut:
		s.Workflows.Drop(e.Session.ID)
		s.Dashboards.Drop(e.Session.ID)
		s.hub.CloseSession(e.Session.ID)
		for _, st := range s.Views.BySession(e.Session.ID) {
			st.Lock()
			st.SignedOut()
			st.Unlock()
		}
	case session.Updated:
		for _, st := range s.Views.BySession(e.Session.ID) {
			st.Lock()
			st.Settings.SeedProfile(e.Session.FirstName(), e.Session.LastName(), e.Session.Email)
			st.Unlock()
		}
	}
	s.log.WithFields(logrus.Fields{"event": e.Kind, "uid": e.Session.UID}).Debug("session change")
}
