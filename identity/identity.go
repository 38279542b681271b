// Package identity talks to the identity provider that owns accounts and
// maps its failures to the messages shown on the auth pages.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// User is the account data returned by a successful provider call.
type User struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"-"`
	RefreshToken string `json:"-"`
}

// IdPCredential is the result of a federated popup sign-in in the browser.
type IdPCredential struct {
	ProviderID  string `json:"providerId"`
	IDToken     string `json:"idToken"`
	AccessToken string `json:"accessToken"`
	RequestURI  string `json:"requestUri"`
}

type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (User, error)
	SignIn(ctx context.Context, email, password string) (User, error)
	SignInWithIdP(ctx context.Context, cred IdPCredential) (User, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, idToken, displayName string) (User, error)
	SignOut(ctx context.Context, idToken string) error
}

const (
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodePopupClosed       = "auth/popup-closed-by-user"
	CodePopupCancelled    = "auth/cancelled-popup-request"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeInvalidToken      = "auth/invalid-id-token"
	CodeInternal          = "auth/internal-error"
)

const GenericMessage = "An error occurred. Please try again"

var messages = map[string]string{
	CodeUserNotFound:    "No account found with this email address",
	CodeWrongPassword:   "Incorrect password",
	CodeEmailInUse:      "An account already exists with this email",
	CodeWeakPassword:    "Password should be at least 6 characters",
	CodeInvalidEmail:    "Invalid email address",
	CodeTooManyRequests: "Too many failed attempts. Please try again later",
	CodePopupClosed:     "Sign-in popup was closed before completion",
	CodePopupCancelled:  "Sign-in was cancelled",
}

// Message returns the user-facing text for a provider error code. Codes
// outside the known set get GenericMessage.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return GenericMessage
}

// Error is a provider failure carrying an auth/* code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Code, e.Err)
	}
	return "identity: " + e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Message() string { return Message(e.Code) }

func newError(code string) *Error { return &Error{Code: code} }

// ErrorFromCode wraps a code reported by the browser, such as a closed
// sign-in popup.
func ErrorFromCode(code string) *Error { return newError(code) }

// Code extracts the auth/* code from err, or "" when err is not a
// provider error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageFor maps any error to the text shown in the error banner.
func MessageFor(err error) string {
	if err == nil {
		return ""
	}
	return Message(Code(err))
}
