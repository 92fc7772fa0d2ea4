package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Payload size limits (in bytes)
const (
	MaxInputSize = 64 * 1024 // 64KB - single stdin write
)

// String length limits
const (
	MaxIDLength   = 128
	MaxNameLength = 256
	MaxPathLength = 4096
)

// Terminal dimension limits
const (
	MinDimension = 1
	MaxDimension = 1000
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateName trims a display name and rejects it if nothing is left
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("name must not be empty")
	}
	if err := ValidateString(trimmed, "name", 1, MaxNameLength, true); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ValidateInput checks text destined for a process's stdin.
// Whitespace is meaningful here ("\n" alone is a valid keystroke), so only
// the empty string is rejected.
func ValidateInput(text string) error {
	if text == "" {
		return fmt.Errorf("text is required")
	}
	if len(text) > MaxInputSize {
		return fmt.Errorf("text size %d bytes exceeds maximum %d bytes", len(text), MaxInputSize)
	}
	return nil
}

// ValidateDimensions validates terminal columns and rows
func ValidateDimensions(cols, rows int) error {
	if cols < MinDimension || cols > MaxDimension {
		return fmt.Errorf("cols must be between %d and %d", MinDimension, MaxDimension)
	}
	if rows < MinDimension || rows > MaxDimension {
		return fmt.Errorf("rows must be between %d and %d", MinDimension, MaxDimension)
	}
	return nil
}
