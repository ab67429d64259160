package voice

import (
	"errors"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
)

const MinPasswordLength = 6

var (
	ErrNameRequired   = errors.New("name is required")
	ErrNameTooShort   = errors.New("name must be at least 2 characters long")
	ErrNameCharacters = errors.New("name can only contain letters, spaces, hyphens, and apostrophes")
	ErrPasswordShort  = errors.New("password must be at least 6 characters long")
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func ValidatePassword(password string) error {
	if len(strings.TrimSpace(password)) < MinPasswordLength {
		return ErrPasswordShort
	}
	return nil
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ErrNameRequired
	case len(name) < 2:
		return ErrNameTooShort
	case !namePattern.MatchString(name):
		return ErrNameCharacters
	}
	return nil
}
