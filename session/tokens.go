package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrBadToken = errors.New("invalid session token")

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens signs the session cookie. The token only carries the session id;
// the projection itself stays server side.
type Tokens struct {
	secret []byte
	issuer string
}

func NewTokens(secret, issuer string) *Tokens {
	return &Tokens{secret: []byte(secret), issuer: issuer}
}

func (t *Tokens) Issue(s Session) (string, error) {
	c := claims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  s.UID,
			Issuer:   t.issuer,
			IssuedAt: jwt.NewNumericDate(s.CreatedAt),
		},
	}
	if !s.ExpiresAt.IsZero() {
		c.ExpiresAt = jwt.NewNumericDate(s.ExpiresAt)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the session id it carries.
func (t *Tokens) Parse(token string) (string, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithLeeway(5*time.Second))
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if c.SessionID == "" {
		return "", ErrBadToken
	}
	return c.SessionID, nil
}
