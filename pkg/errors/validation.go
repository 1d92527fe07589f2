package errors

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/image/colornames"
)

// maxWordLength bounds a single word in runes.
const maxWordLength = 256

// ValidateWord validates a word before it is measured.
//
// The validation rules are intentionally conservative:
//   - No empty or whitespace-only text
//   - No control characters (newlines included; words are single-line)
//   - Maximum length of 256 runes
func ValidateWord(word string) error {
	if strings.TrimSpace(word) == "" {
		return New(ErrCodeInvalidConfig, "word cannot be empty")
	}

	if n := len([]rune(word)); n > maxWordLength {
		return New(ErrCodeInvalidConfig, "word too long (%d runes, max %d)", n, maxWordLength)
	}

	for _, r := range word {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "word %q contains control characters", word)
		}
	}

	return nil
}

// ValidateShapeText rejects empty or whitespace-only shape text. Shape
// text has no length cap; the auto-fit solver shrinks it to the canvas.
func ValidateShapeText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidConfig, "shape text cannot be empty")
	}
	return nil
}

// hexColorRegex matches #rgb, #rgba, #rrggbb and #rrggbbaa.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateColor validates a fill color. Accepted forms are SVG color
// keywords (e.g. "black", "steelblue") and hex notation.
func ValidateColor(color string) error {
	c := strings.TrimSpace(color)
	if c == "" {
		return New(ErrCodeInvalidConfig, "color cannot be empty")
	}
	if strings.HasPrefix(c, "#") {
		if !hexColorRegex.MatchString(c) {
			return New(ErrCodeInvalidConfig, "invalid hex color: %q", color)
		}
		return nil
	}
	if _, ok := colornames.Map[strings.ToLower(c)]; !ok {
		return New(ErrCodeInvalidConfig, "unknown color name: %q", color)
	}
	return nil
}

// ValidatePath validates a font path received from an untrusted client.
// It prevents path traversal so the path can be joined to a font directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}

	return nil
}
