package view

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const MinPasswordLen = 6

// FormError is a validation failure shown in the error banner. It is
// raised before any provider call.
type FormError string

func (e FormError) Error() string { return string(e) }

const (
	ErrFillAll       FormError = "Please fill in all fields"
	ErrFillRequired  FormError = "Please fill in all required fields"
	ErrPasswordMatch FormError = "Passwords do not match"
	ErrPasswordShort FormError = "Password must be at least 6 characters"
	ErrTerms         FormError = "You must agree to the terms"
	ErrEmailRequired FormError = "Please enter your email address"
	ErrPhoneRequired FormError = "Please enter your phone number"
	ErrCode          FormError = "Enter the 6-digit code we sent you"
	ErrCurrentPass   FormError = "Please enter your current password"
)

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" || f.Password == "" {
		return ErrFillAll
	}
	return nil
}

type SignupForm struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeToTerms    bool   `json:"agreeToTerms"`
	AgreeMarketing  bool   `json:"agreeToMarketing"`
}

// Validate checks the form in the order the page reports problems.
func (f SignupForm) Validate() error {
	if blank(f.FirstName) || blank(f.LastName) || blank(f.Email) || f.Password == "" {
		return ErrFillRequired
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMatch
	}
	if utf8.RuneCountInString(f.Password) < MinPasswordLen {
		return ErrPasswordShort
	}
	if !f.AgreeToTerms {
		return ErrTerms
	}
	return nil
}

// DisplayName joins first and last name the way the account is created.
func (f SignupForm) DisplayName() string {
	return strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

var strengthLabels = []string{"Too weak", "Weak", "Fair", "Good", "Strong"}

// PasswordStrength scores a password 0..4: one point each for length of
// at least 8, an upper-case letter, a digit and a symbol.
func PasswordStrength(pw string) int {
	var upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case !(r >= 'a' && r <= 'z'):
			symbol = true
		}
	}
	score := 0
	for _, ok := range []bool{utf8.RuneCountInString(pw) >= 8, upper, digit, symbol} {
		if ok {
			score++
		}
	}
	return score
}

func StrengthLabel(score int) string {
	if score < 0 || score >= len(strengthLabels) {
		return strengthLabels[0]
	}
	return strengthLabels[score]
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
