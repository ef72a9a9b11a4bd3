package strcase

import (
	"strings"
	"unicode"
)

// ToLowerCamel converts Go identifiers and snake_case to lowerCamelCase.
//
//	ResetToken -> resetToken
//	UserID     -> userId
//	new_password -> newPassword
func ToLowerCamel(s string) string {
	parts := strings.Split(ToLowerSnake(s), "_")

	var b strings.Builder
	b.Grow(len(s))

	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}

	return b.String()
}
