package errors

import (
	"strings"
	"unicode"
)

// ValidateLayoutName validates a layout name supplied on the command line or
// over the API. Layout names end up in output file names, so the rules are
// conservative:
//   - No empty names
//   - Maximum length of 255 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidateLayoutName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "layout name cannot be empty")
	}

	if len(name) > 255 {
		return New(ErrCodeInvalidInput, "layout name too long (max 255 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "layout name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "layout name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// SanitizeFileComponent turns a layout name into something usable inside a
// file name. Characters outside [A-Za-z0-9._-] become underscores.
func SanitizeFileComponent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
