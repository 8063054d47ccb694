// Package validation provides the field checks used by configuration loading
// and trace recording.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxRunNameLen bounds the name stored with a recorded run.
const MaxRunNameLen = 64

var validRunNameChars = regexp.MustCompile(`^[a-zA-Z0-9\-_.:]+$`)

// FieldError names the configuration field that failed a check.
type FieldError struct {
	Field  string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v %s", e.Field, e.Value, e.Reason)
}

// Finite fails for NaN and infinities.
func Finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &FieldError{Field: field, Value: v, Reason: "must be finite"}
	}
	return nil
}

// NonNegative fails for negative or non-finite values.
func NonNegative(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return &FieldError{Field: field, Value: v, Reason: "must not be negative"}
	}
	return nil
}

// Positive fails unless v > 0 and finite.
func Positive(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return &FieldError{Field: field, Value: v, Reason: "must be positive"}
	}
	return nil
}

// InRange fails unless lo <= v <= hi.
func InRange(field string, v, lo, hi float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < lo || v > hi {
		return &FieldError{Field: field, Value: v, Reason: fmt.Sprintf("must be within [%g, %g]", lo, hi)}
	}
	return nil
}

// OneOf fails unless v equals one of options.
func OneOf(field, v string, options ...string) error {
	for _, o := range options {
		if v == o {
			return nil
		}
	}
	return &FieldError{Field: field, Value: fmt.Sprintf("%q", v), Reason: "must be one of " + strings.Join(options, ", ")}
}

// NotEmpty fails for blank strings.
func NotEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return &FieldError{Field: field, Value: `""`, Reason: "must not be empty"}
	}
	return nil
}

// RunName trims and checks a run label. Letters, digits and - _ . : only.
func RunName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("run name contains invalid UTF-8")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("run name cannot be empty")
	}
	if len(trimmed) > MaxRunNameLen {
		return "", fmt.Errorf("run name too long: %d characters (max %d)", len(trimmed), MaxRunNameLen)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("run name contains control characters")
		}
	}
	if !validRunNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("run name %q contains invalid characters", trimmed)
	}
	return trimmed, nil
}
