// Package validate holds the field validators shared by every service
// mutator. Validators are pure: they return nil for valid input and a
// caller-displayable error otherwise.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)
	nameRegex     = regexp.MustCompile(`^[A-Za-z\x{00C0}-\x{024F} '\-]{2,50}$`)
	mobileRegex   = regexp.MustCompile(`^01[0125][0-9]{8}$`)

	mobileStrip = regexp.MustCompile(`[\s\-().]+`)
)

func Email(email string) error {
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

func Username(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-50 characters of letters, digits and underscores")
	}
	return nil
}

func Name(name string) error {
	if !nameRegex.MatchString(strings.TrimSpace(name)) {
		return errors.New("name must be 2-50 letters")
	}
	return nil
}

// NormalizeMobile rewrites a phone number to the canonical local form:
// whitespace and punctuation removed and the +20 / 0020 / 20 country
// prefix replaced with the local leading zero. The function is idempotent;
// every comparison, storage and uniqueness check must go through it.
func NormalizeMobile(mobile string) string {
	m := mobileStrip.ReplaceAllString(mobile, "")
	switch {
	case strings.HasPrefix(m, "+20"):
		m = "0" + m[3:]
	case strings.HasPrefix(m, "0020"):
		m = "0" + m[4:]
	case strings.HasPrefix(m, "20") && len(m) == 12:
		m = "0" + m[2:]
	}
	return m
}

// Mobile validates the canonical local form. Callers normalize first.
func Mobile(mobile string) error {
	if !mobileRegex.MatchString(mobile) {
		return errors.New("invalid mobile number: expected 11-digit local format starting with 01")
	}
	return nil
}
