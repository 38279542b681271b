package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rustyeddy/forexai/session"
	"github.com/rustyeddy/forexai/view"
)

const (
	visitorCookie = "forexai_visitor"
	sessionCookie = "forexai_session"

	keyView    = "view"
	keySession = "session"
	keyScope   = "scope"
)

// visitor attaches the caller's view state, issuing a visitor cookie on
// the first request.
func (s *Server) visitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, id, 0, "/", "", s.opts.SecureCookies, true)
		}
		c.Set(keyView, s.Views.Get(id))
		c.Next()
	}
}

// loadSession resolves the session cookie. A stale cookie is cleared and
// the view falls back to signed out.
func (s *Server) loadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := c.Cookie(sessionCookie)
		if err != nil || tok == "" {
			c.Next()
			return
		}
		sess, err := s.resolve(c, tok)
		if err != nil {
			s.clearSessionCookie(c)
			st := viewState(c)
			st.Lock()
			if st.SessionID != "" {
				st.SignedOut()
			}
			st.Unlock()
			c.Next()
			return
		}
		c.Set(keySession, sess)
		c.Next()
	}
}

func (s *Server) resolve(c *gin.Context, tok string) (session.Session, error) {
	id, err := s.Tokens.Parse(tok)
	if err != nil {
		return session.Session{}, err
	}
	return s.Sessions.Lookup(c.Request.Context(), id)
}

// scope identifies whose dashboard, workflow and history a request uses.
type scope struct {
	Key  string
	UID  string
	Demo bool
	User session.Projection
}

// requireSession rejects callers without a session. With allowDemo and
// dev navigation on, they act as the demo user instead.
func (s *Server) requireSession(allowDemo bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sess, ok := currentSession(c); ok {
			c.Set(keyScope, scope{Key: sess.ID, UID: sess.UID, User: sess.Projection()})
			c.Next()
			return
		}
		if allowDemo && s.opts.DevNav {
			st := viewState(c)
			demo := session.Session{UID: view.Demo.UID, DisplayName: view.Demo.DisplayName, Email: view.Demo.Email}
			c.Set(keyScope, scope{Key: demoKey(st.ID), UID: view.Demo.UID, Demo: true, User: demo.Projection()})
			c.Next()
			return
		}
		fail(c, http.StatusUnauthorized, view.ErrAuthRequired.Error())
	}
}

func (s *Server) setSessionCookie(c *gin.Context, sess session.Session) error {
	tok, err := s.Tokens.Issue(sess)
	if err != nil {
		return err
	}
	maxAge := 0
	if s.opts.SessionTTL > 0 {
		maxAge = int(s.opts.SessionTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, tok, maxAge, "/", "", s.opts.SecureCookies, true)
	return nil
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.SecureCookies, true)
}

// demoKey scopes a dev-navigation visitor's dashboard and analysis.
func demoKey(visitorID string) string { return "demo:" + visitorID }

func viewState(c *gin.Context) *view.State {
	return c.MustGet(keyView).(*view.State)
}

func currentSession(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(keySession)
	if !ok {
		return session.Session{}, false
	}
	return v.(session.Session), true
}

func currentScope(c *gin.Context) scope {
	return c.MustGet(keyScope).(scope)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}
