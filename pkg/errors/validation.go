package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds canvas and user identifiers accepted from the wire.
const maxIDLength = 128

// ValidateCanvasID validates a board identifier received from a client.
// Identifiers end up in store keys, redis channel names and URL paths, so the
// rules are conservative:
//   - No empty identifiers
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateCanvasID(id string) error {
	return validateID(ErrCodeInvalidInput, "canvas id", id)
}

// ValidateUserID applies the canvas id rules to user identifiers.
func ValidateUserID(id string) error {
	return validateID(ErrCodeInvalidInput, "user id", id)
}

func validateID(code Code, what, id string) error {
	if id == "" {
		return New(code, "%s cannot be empty", what)
	}
	if len(id) > maxIDLength {
		return New(code, "%s too long (max %d characters)", what, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(code, "%s contains invalid characters", what)
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "*"} {
		if strings.Contains(id, pattern) {
			return New(code, "%s contains invalid characters: %q", what, pattern)
		}
	}
	return nil
}
