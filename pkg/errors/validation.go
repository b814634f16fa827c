package errors

import (
	"strings"
	"unicode"
)

// maxRecordIDLength bounds family and patient identifiers.
const maxRecordIDLength = 256

// ValidateRecordID validates a family or patient record identifier.
// Record ids end up in file names, cache keys and lock keys, so the rules reject
// anything that could escape those namespaces:
//   - No empty or whitespace-only ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateRecordID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}

	if len(id) > maxRecordIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxRecordIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "%s id contains invalid characters: %q", kind, pattern)
		}
	}

	return nil
}

// ValidateURL validates a connection URL string for the given schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URL must use one of the schemes %v", schemes)
}
