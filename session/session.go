// Package session keeps the signed-in user's projection between requests.
package session

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Session is the read-only projection of the identity provider account.
// It is replaced wholesale, never edited in place.
type Session struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	IDToken     string    `json:"idToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Name is the display name, or "Trader" when the account has none.
func (s Session) Name() string {
	if n := strings.TrimSpace(s.DisplayName); n != "" {
		return n
	}
	return "Trader"
}

// Initial is the avatar letter: the first letter of the display name,
// else of the email, else "T".
func (s Session) Initial() string {
	for _, v := range []string{strings.TrimSpace(s.DisplayName), s.Email} {
		if r, _ := utf8.DecodeRuneInString(v); r != utf8.RuneError {
			return string(unicode.ToUpper(r))
		}
	}
	return "T"
}

func (s Session) FirstName() string {
	f := strings.Fields(s.DisplayName)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func (s Session) LastName() string {
	f := strings.Fields(s.DisplayName)
	if len(f) < 2 {
		return ""
	}
	return f[1]
}

// Projection is what the browser sees.
type Projection struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Initial     string `json:"initial"`
	FirstName   string `json:"firstName"`
}

func (s Session) Projection() Projection {
	first := s.FirstName()
	if first == "" {
		first = "Trader"
	}
	return Projection{
		UID:         s.UID,
		DisplayName: s.Name(),
		Email:       s.Email,
		Initial:     s.Initial(),
		FirstName:   first,
	}
}
