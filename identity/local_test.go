package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestLocal() *Local { return NewLocal(bcrypt.MinCost) }

func TestLocalSignUpAndSignIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLocal()

	u, err := l.SignUp(ctx, "trader@example.com", "secret1", "Jane Trader")
	require.NoError(t, err)
	assert.NotEmpty(t, u.UID)
	assert.NotEmpty(t, u.IDToken)
	assert.Equal(t, "Jane Trader", u.DisplayName)

	got, err := l.SignIn(ctx, "Trader@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.UID, got.UID)
	assert.NotEqual(t, u.IDToken, got.IDToken)
}

func TestLocalSignUpErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLocal()
	_, err := l.SignUp(ctx, "taken@example.com", "secret1", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"invalid email", "not-an-email", "secret1", CodeInvalidEmail},
		{"no domain dot", "me@localhost", "secret1", CodeInvalidEmail},
		{"weak password", "new@example.com", "12345", CodeWeakPassword},
		{"three accented characters", "new@example.com", "ééé", CodeWeakPassword},
		{"taken", "TAKEN@example.com", "secret1", CodeEmailInUse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.SignUp(ctx, tt.email, tt.password, "")
			assert.Equal(t, tt.code, Code(err))
		})
	}
}

func TestLocalSignInErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLocal()
	_, err := l.SignUp(ctx, "a@example.com", "secret1", "")
	require.NoError(t, err)

	_, err = l.SignIn(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, CodeUserNotFound, Code(err))

	for i := 0; i < MaxFailures; i++ {
		_, err = l.SignIn(ctx, "a@example.com", "wrong!")
		assert.Equal(t, CodeWrongPassword, Code(err))
	}
	_, err = l.SignIn(ctx, "a@example.com", "secret1")
	assert.Equal(t, CodeTooManyRequests, Code(err))

	// a reset clears the lockout
	require.NoError(t, l.SendPasswordReset(ctx, "a@example.com"))
	assert.True(t, l.ResetRequested("a@example.com"))
	_, err = l.SignIn(ctx, "a@example.com", "secret1")
	assert.NoError(t, err)
}

func TestLocalPasswordReset(t *testing.T) {
	t.Parallel()

	l := newTestLocal()
	err := l.SendPasswordReset(context.Background(), "ghost@example.com")
	assert.Equal(t, CodeUserNotFound, Code(err))
	assert.False(t, l.ResetRequested("ghost@example.com"))
}

func TestLocalUpdateProfileAndSignOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLocal()
	u, err := l.SignUp(ctx, "a@example.com", "secret1", "Old Name")
	require.NoError(t, err)

	u2, err := l.UpdateProfile(ctx, u.IDToken, "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", u2.DisplayName)
	assert.Equal(t, u.IDToken, u2.IDToken)

	require.NoError(t, l.SignOut(ctx, u.IDToken))
	_, err = l.UpdateProfile(ctx, u.IDToken, "Again")
	assert.Equal(t, CodeInvalidToken, Code(err))
}

func TestLocalFederated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := newTestLocal()

	u, err := l.SignInWithIdP(ctx, IdPCredential{ProviderID: "google.com", IDToken: "g.user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "g.user", u.DisplayName)

	again, err := l.SignInWithIdP(ctx, IdPCredential{IDToken: "g.user@example.com"})
	require.NoError(t, err)
	assert.Equal(t, u.UID, again.UID)

	_, err = l.SignIn(ctx, "g.user@example.com", "anything")
	assert.Equal(t, CodeWrongPassword, Code(err))

	_, err = l.SignInWithIdP(ctx, IdPCredential{IDToken: "garbage"})
	assert.Equal(t, CodeInvalidCredential, Code(err))
}
