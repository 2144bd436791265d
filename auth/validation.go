package auth

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 8

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsStrongPassword requires at least eight characters with an upper case
// letter, a lower case letter and a digit.
func IsStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}
	classes := classify(password)
	return classes.upper && classes.lower && classes.digit
}

var folder = cases.Fold()

// NormalizeEmail is the key every user store files accounts under.
func NormalizeEmail(email string) string {
	return folder.String(strings.TrimSpace(email))
}

type Strength string

const (
	StrengthWeak   Strength = "Weak"
	StrengthMedium Strength = "Medium"
	StrengthStrong Strength = "Strong"
)

// PasswordStrength scores a password from 0 to 100. Length contributes up to
// 30 points, each character class 15, and every class beyond the first 5 more.
func PasswordStrength(password string) int {
	if password == "" {
		return 0
	}
	length := float64(utf8.RuneCountInString(password))
	score := math.Min(length/12, 1) * 30

	classes := classify(password)
	types := 0
	for _, present := range []bool{classes.upper, classes.lower, classes.digit, classes.special} {
		if present {
			score += 15
			types++
		}
	}
	score += float64(types-1) * 5

	return int(math.Min(math.Round(score), 100))
}

// StrengthLabel buckets a PasswordStrength score.
func StrengthLabel(score int) Strength {
	switch {
	case score < 30:
		return StrengthWeak
	case score < 70:
		return StrengthMedium
	default:
		return StrengthStrong
	}
}

type charClasses struct {
	upper, lower, digit, special bool
}

// classify mirrors the ASCII character classes of the signup form; anything
// outside A-Z, a-z and 0-9 counts as special.
func classify(password string) charClasses {
	var c charClasses
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= '0' && r <= '9':
			c.digit = true
		default:
			c.special = true
		}
	}
	return c
}

// blank reports whether a submitted form value is missing.
func blank(value string) bool {
	return strings.TrimFunc(value, unicode.IsSpace) == ""
}
