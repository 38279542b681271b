package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                 string
		s                    Session
		initial, first, last string
		display              string
	}{
		{"full name", Session{DisplayName: "jane doe", Email: "j@example.com"}, "J", "jane", "doe", "jane doe"},
		{"email only", Session{Email: "zed@example.com"}, "Z", "", "", "Trader"},
		{"nothing", Session{}, "T", "", "", "Trader"},
		{"three words", Session{DisplayName: "Ana Maria Lopez"}, "A", "Ana", "Maria", "Ana Maria Lopez"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.initial, tt.s.Initial())
			assert.Equal(t, tt.first, tt.s.FirstName())
			assert.Equal(t, tt.last, tt.s.LastName())
			assert.Equal(t, tt.display, tt.s.Name())
		})
	}
}

func TestProjection(t *testing.T) {
	t.Parallel()

	p := Session{UID: "u1", Email: "a@b.com", IDToken: "secret"}.Projection()
	assert.Equal(t, Projection{UID: "u1", DisplayName: "Trader", Email: "a@b.com", Initial: "A", FirstName: "Trader"}, p)
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, Session{}.Expired(now))
	assert.False(t, Session{ExpiresAt: now.Add(time.Second)}.Expired(now))
	assert.True(t, Session{ExpiresAt: now}.Expired(now))
}
