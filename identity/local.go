package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 6
	MaxFailures    = 5
)

type account struct {
	uid         string
	email       string
	displayName string
	hash        []byte
	federated   bool
}

// Local is an in-process Provider for development and tests. Passwords
// are stored as bcrypt hashes; nothing survives a restart.
type Local struct {
	cost int

	mu       sync.Mutex
	accounts map[string]*account // by lower-cased email
	tokens   map[string]string   // id token → email
	failures map[string]int
	resets   map[string]time.Time
}

var _ Provider = (*Local)(nil)

// NewLocal returns an empty provider. A cost of 0 uses bcrypt.DefaultCost.
func NewLocal(cost int) *Local {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Local{
		cost:     cost,
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		failures: make(map[string]int),
		resets:   make(map[string]time.Time),
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

func (l *Local) SignUp(ctx context.Context, email, password, displayName string) (User, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return User{}, newError(CodeInvalidEmail)
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return User{}, newError(CodeWeakPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return User{}, &Error{Code: CodeInternal, Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := l.accounts[key]; ok {
		return User{}, newError(CodeEmailInUse)
	}
	a := &account{uid: uuid.NewString(), email: email, displayName: displayName, hash: hash}
	l.accounts[key] = a
	return l.issueLocked(a), nil
}

func (l *Local) SignIn(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return User{}, newError(CodeInvalidEmail)
	}
	key := strings.ToLower(email)

	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[key]
	if !ok {
		return User{}, newError(CodeUserNotFound)
	}
	if l.failures[key] >= MaxFailures {
		return User{}, newError(CodeTooManyRequests)
	}
	if a.hash == nil {
		// federated accounts have no password
		return User{}, newError(CodeWrongPassword)
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		l.failures[key]++
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return User{}, newError(CodeWrongPassword)
		}
		return User{}, &Error{Code: CodeInternal, Err: err}
	}
	delete(l.failures, key)
	return l.issueLocked(a), nil
}

// SignInWithIdP trusts the credential's id token as the federated
// account's email address, creating the account on first use.
func (l *Local) SignInWithIdP(ctx context.Context, cred IdPCredential) (User, error) {
	email := strings.TrimSpace(cred.IDToken)
	if !validEmail(email) {
		return User{}, newError(CodeInvalidCredential)
	}
	key := strings.ToLower(email)

	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[key]
	if !ok {
		name, _, _ := strings.Cut(email, "@")
		a = &account{uid: uuid.NewString(), email: email, displayName: name, federated: true}
		l.accounts[key] = a
	}
	return l.issueLocked(a), nil
}

func (l *Local) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return newError(CodeInvalidEmail)
	}
	key := strings.ToLower(email)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[key]; !ok {
		return newError(CodeUserNotFound)
	}
	l.resets[key] = time.Now()
	delete(l.failures, key)
	return nil
}

// ResetRequested reports whether a password reset was sent to email.
func (l *Local) ResetRequested(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.resets[strings.ToLower(email)]
	return ok
}

func (l *Local) UpdateProfile(ctx context.Context, idToken, displayName string) (User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accountLocked(idToken)
	if !ok {
		return User{}, newError(CodeInvalidToken)
	}
	a.displayName = displayName
	return l.userLocked(a, idToken), nil
}

func (l *Local) SignOut(ctx context.Context, idToken string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.tokens, idToken)
	return nil
}

func (l *Local) accountLocked(idToken string) (*account, bool) {
	email, ok := l.tokens[idToken]
	if !ok {
		return nil, false
	}
	a, ok := l.accounts[strings.ToLower(email)]
	return a, ok
}

func (l *Local) issueLocked(a *account) User {
	tok := uuid.NewString()
	l.tokens[tok] = a.email
	return l.userLocked(a, tok)
}

func (l *Local) userLocked(a *account, idToken string) User {
	return User{
		UID:          a.uid,
		Email:        a.email,
		DisplayName:  a.displayName,
		IDToken:      idToken,
		RefreshToken: "local-" + a.uid,
	}
}
