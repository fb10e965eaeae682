package core

import "unicode"

// IsStrongPassword reports whether a password qualifies for storage:
// at least 8 characters with one uppercase letter, one lowercase
// letter, and one digit. Pure predicate, no state.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
