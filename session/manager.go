package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rustyeddy/forexai/identity"
)

type EventKind string

const (
	SignedIn  EventKind = "signed-in"
	SignedOut EventKind = "signed-out"
	Updated   EventKind = "updated"
)

type Event struct {
	Kind    EventKind
	Session Session
}

// Manager creates and ends sessions and tells subscribers about it.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewManager(store Store, ttl time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, ttl: ttl, now: now, subs: make(map[int]func(Event))}
}

// Open starts a session for a freshly signed-in user.
func (m *Manager) Open(ctx context.Context, u identity.User) (Session, error) {
	now := m.now()
	s := Session{
		ID:          uuid.NewString(),
		UID:         u.UID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		IDToken:     u.IDToken,
		CreatedAt:   now,
	}
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}
	if err := m.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	m.publish(Event{Kind: SignedIn, Session: s})
	return s, nil
}

// Replace swaps the projection after a profile change, keeping the id and
// expiry.
func (m *Manager) Replace(ctx context.Context, id string, u identity.User) (Session, error) {
	old, err := m.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	s := old
	s.DisplayName = u.DisplayName
	s.Email = u.Email
	if u.IDToken != "" {
		s.IDToken = u.IDToken
	}
	if err := m.store.Put(ctx, s); err != nil {
		return Session{}, err
	}
	m.publish(Event{Kind: Updated, Session: s})
	return s, nil
}

func (m *Manager) Close(ctx context.Context, id string) error {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.publish(Event{Kind: SignedOut, Session: s})
	return nil
}

// Lookup returns a live session. A session found expired is deleted and
// subscribers see it sign out.
func (m *Manager) Lookup(ctx context.Context, id string) (Session, error) {
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrExpired) {
		if derr := m.store.Delete(ctx, id); derr != nil {
			return Session{}, derr
		}
		m.publish(Event{Kind: SignedOut, Session: Session{ID: id}})
	}
	return s, err
}

// Prune looks up each id and ends the ones the store no longer holds,
// including keys Redis expired on its own. It returns the ended ids.
func (m *Manager) Prune(ctx context.Context, ids []string) []string {
	var gone []string
	for _, id := range ids {
		_, err := m.Lookup(ctx, id)
		switch {
		case errors.Is(err, ErrExpired):
			gone = append(gone, id)
		case errors.Is(err, ErrNotFound):
			m.publish(Event{Kind: SignedOut, Session: Session{ID: id}})
			gone = append(gone, id)
		}
	}
	return gone
}

// Expire ends sessions the store reports as expired, notifying
// subscribers as if they had signed out.
func (m *Manager) Expire(ids []string) {
	for _, id := range ids {
		m.publish(Event{Kind: SignedOut, Session: Session{ID: id}})
	}
}

// Subscribe registers fn for session changes. The returned func removes it.
func (m *Manager) Subscribe(fn func(Event)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) publish(e Event) {
	m.mu.RLock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}
