package wizard

import (
	"regexp"
	"strings"
	"unicode"
)

// MinPassableScore is the lowest strength score a form accepts.
const MinPassableScore = 3

var strengthLevels = [...]string{"Very Weak", "Weak", "Fair", "Good", "Strong"}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Strength rates a password on five independent criteria.
type Strength struct {
	Score   int
	Level   string
	Missing []string
}

// Passable reports whether the score reaches MinPassableScore.
func (s Strength) Passable() bool {
	return s.Score >= MinPassableScore
}

// PasswordStrength scores p one point each for length >= 8, a lowercase
// letter, an uppercase letter, a digit and any other character.
func PasswordStrength(p string) Strength {
	lower, upper, digit, special := charClasses(p)

	checks := []struct {
		ok   bool
		hint string
	}{
		{len(p) >= 8, "At least 8 characters"},
		{lower, "Lowercase letter"},
		{upper, "Uppercase letter"},
		{digit, "Number"},
		{special, "Special character"},
	}

	var s Strength
	for _, c := range checks {
		if c.ok {
			s.Score++
		} else {
			s.Missing = append(s.Missing, c.hint)
		}
	}
	s.Level = strengthLevels[min(s.Score, len(strengthLevels)-1)]

	return s
}

func charClasses(p string) (lower, upper, digit, special bool) {
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return lower, upper, digit, special
}

// ValidEmail applies the loose client-side address check.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func validateName(name string) string {
	if len([]rune(strings.TrimFunc(name, unicode.IsSpace))) < 2 {
		return "Name must be at least 2 characters"
	}
	return ""
}

func validateEmail(email string) string {
	if !ValidEmail(email) {
		return "Please enter a valid email address"
	}
	return ""
}

func validatePassword(p string) string {
	s := PasswordStrength(p)
	if !s.Passable() {
		return "Password needs: " + strings.Join(s.Missing, ", ")
	}
	return ""
}

func validateConfirmation(p, confirm string) string {
	if p != confirm {
		return "Passwords do not match"
	}
	return ""
}
