// Package normalize canonicalises user-entered keys before storage and comparison.
package normalize

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Key trims surrounding whitespace and lowercases s.
// Used for e-mail addresses and free-text answers.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var validate = validator.New()

// ValidEmail applies the same "required,email" rule gin binding uses at the HTTP edge,
// so display-name forms like "Ann <a@x.com>" are rejected here too.
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
