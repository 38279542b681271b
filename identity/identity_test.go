package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want string
	}{
		{CodeUserNotFound, "No account found with this email address"},
		{CodeWrongPassword, "Incorrect password"},
		{CodeEmailInUse, "An account already exists with this email"},
		{CodeWeakPassword, "Password should be at least 6 characters"},
		{CodeInvalidEmail, "Invalid email address"},
		{CodeTooManyRequests, "Too many failed attempts. Please try again later"},
		{CodePopupClosed, "Sign-in popup was closed before completion"},
		{CodePopupCancelled, "Sign-in was cancelled"},
		{"auth/network-request-failed", GenericMessage},
		{CodeInvalidCredential, GenericMessage},
		{"", GenericMessage},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := Message(tt.code)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
		})
	}
}

func TestMessageFor(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("login: %w", newError(CodeWrongPassword))
	assert.Equal(t, "Incorrect password", MessageFor(wrapped))
	assert.Equal(t, CodeWrongPassword, Code(wrapped))

	assert.Equal(t, GenericMessage, MessageFor(errors.New("boom")))
	assert.Equal(t, "", MessageFor(nil))

	popup := ErrorFromCode(CodePopupClosed)
	assert.Equal(t, "Sign-in popup was closed before completion", popup.Message())
	assert.Contains(t, popup.Error(), CodePopupClosed)
}
