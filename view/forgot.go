package view

import (
	"errors"
	"strings"
	"unicode/utf8"
)

type Method string

const (
	MethodEmail Method = "email"
	MethodPhone Method = "phone"
)

type Step string

const (
	StepRequest Step = "request"
	StepSent    Step = "sent"
	StepVerify  Step = "verify"
	StepReset   Step = "reset"
	StepDone    Step = "done"
)

var ErrStep = errors.New("not available at this step")

// ForgotFlow walks the password recovery screens. Only the email method
// reaches the identity provider; the phone path is presentational.
type ForgotFlow struct {
	Method Method `json:"method"`
	Step   Step   `json:"step"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

func NewForgotFlow() *ForgotFlow {
	return &ForgotFlow{Method: MethodEmail, Step: StepRequest}
}

// SetMethod switches between email and phone on the request step.
func (f *ForgotFlow) SetMethod(m Method) error {
	if f.Step != StepRequest {
		return ErrStep
	}
	switch m {
	case MethodEmail, MethodPhone:
		f.Method = m
		return nil
	}
	return errors.New("unknown recovery method")
}

// Request validates the contact and returns the email to send the reset
// to, or "" for the phone method. The caller moves the flow on with Sent
// once the provider accepted it.
func (f *ForgotFlow) Request(contact string) (string, error) {
	if f.Step != StepRequest {
		return "", ErrStep
	}
	contact = strings.TrimSpace(contact)
	if f.Method == MethodPhone {
		if contact == "" {
			return "", ErrPhoneRequired
		}
		f.Phone = contact
		return "", nil
	}
	if contact == "" {
		return "", ErrEmailRequired
	}
	f.Email = contact
	return contact, nil
}

func (f *ForgotFlow) Sent() { f.Step = StepSent }

// Continue moves from the sent notice to code entry.
func (f *ForgotFlow) Continue() error {
	if f.Step != StepSent {
		return ErrStep
	}
	f.Step = StepVerify
	return nil
}

func (f *ForgotFlow) Verify(code string) error {
	if f.Step != StepVerify {
		return ErrStep
	}
	if len(code) != 6 || !allDigits(code) {
		return ErrCode
	}
	f.Step = StepReset
	return nil
}

func (f *ForgotFlow) Reset(password, confirm string) error {
	if f.Step != StepReset {
		return ErrStep
	}
	if password == "" || confirm == "" {
		return ErrFillAll
	}
	if password != confirm {
		return ErrPasswordMatch
	}
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return ErrPasswordShort
	}
	f.Step = StepDone
	return nil
}

// Back goes one screen back. It is a no-op on the first screen.
func (f *ForgotFlow) Back() {
	switch f.Step {
	case StepSent:
		f.Step = StepRequest
	case StepVerify:
		f.Step = StepSent
	case StepReset:
		f.Step = StepVerify
	}
}
