package view

import (
	"sync"
	"time"
)

// DemoUser is shown on protected pages opened through dev navigation.
type DemoUser struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

var Demo = DemoUser{UID: "demo-user-123", DisplayName: "Demo Trader", Email: "demo@forexaipro.com"}

// State is everything one visitor sees. Callers hold the embedded mutex
// while touching it.
type State struct {
	sync.Mutex

	ID        string
	SessionID string
	Nav       *Navigator
	Banner    *Banner
	Forgot    *ForgotFlow
	Settings  *SettingsPanel

	seen time.Time
}

func NewState(id string, devNav bool, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		ID:       id,
		Nav:      NewNavigator(devNav),
		Banner:   NewBanner(now),
		Forgot:   NewForgotFlow(),
		Settings: NewSettingsPanel(now),
		seen:     now(),
	}
}

// SignedIn binds the state to a session and seeds the settings profile.
func (s *State) SignedIn(sessionID, firstName, lastName, email string) {
	s.SessionID = sessionID
	s.Settings.SeedProfile(firstName, lastName, email)
	s.Forgot = NewForgotFlow()
	s.Nav.OnSignIn()
}

func (s *State) SignedOut() {
	s.SessionID = ""
	s.Settings = NewSettingsPanel(s.Settings.now)
	s.Nav.OnSignOut()
}

type Snapshot struct {
	Page     Page        `json:"page"`
	SignedIn bool        `json:"signedIn"`
	Alert    *Alert      `json:"alert,omitempty"`
	Forgot   *ForgotFlow `json:"forgot,omitempty"`
	Demo     *DemoUser   `json:"demoUser,omitempty"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{Page: s.Nav.Page(), SignedIn: s.Nav.SignedIn()}
	if a, ok := s.Banner.Current(); ok {
		snap.Alert = &a
	}
	if snap.Page == Forgot {
		f := *s.Forgot
		snap.Forgot = &f
	}
	if snap.Page.Protected() && !snap.SignedIn {
		d := Demo
		snap.Demo = &d
	}
	return snap
}

// States holds one State per visitor cookie.
type States struct {
	mu     sync.Mutex
	devNav bool
	now    func() time.Time
	m      map[string]*State
}

func NewStates(devNav bool, now func() time.Time) *States {
	if now == nil {
		now = time.Now
	}
	return &States{devNav: devNav, now: now, m: make(map[string]*State)}
}

// Get returns the visitor's state, creating it on first use.
func (r *States) Get(id string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	if !ok {
		s = NewState(id, r.devNav, r.now)
		r.m[id] = s
	}
	s.seen = r.now()
	return s
}

// BySession returns the states bound to a session id. The caller must not
// hold any State lock.
func (r *States) BySession(sessionID string) []*State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*State
	for _, s := range r.m {
		s.Lock()
		bound := s.SessionID == sessionID
		s.Unlock()
		if bound {
			out = append(out, s)
		}
	}
	return out
}

// Sweep drops visitors not seen within idle and returns their ids.
func (r *States) Sweep(idle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-idle)
	var gone []string
	for id, s := range r.m {
		if s.seen.Before(cutoff) {
			delete(r.m, id)
			gone = append(gone, id)
		}
	}
	return gone
}

func (r *States) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}
