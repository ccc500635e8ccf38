package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateAnalysisID validates an analysis identifier before it is used as a
// storage key or cache key component.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateAnalysisID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "analysis id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidID, "analysis id too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "analysis id contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "analysis id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a file path supplied on the command line or in a
// watch configuration.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	return nil
}

// sessionIDRegex matches client-chosen session identifiers (uuid-like tokens).
var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateSessionID validates a client session identifier used to scope the
// last-analysis cache.
func ValidateSessionID(id string) error {
	if !sessionIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid session id: %q", id)
	}
	return nil
}
