package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

func OrZero[T any](v *T) T {
	var zero T
	return OrDefault(v, zero)
}

// OrDefault dereferences v, falling back when it is nil.
func OrDefault[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

// Trimmed strips surrounding whitespace and reports whether anything is left.
func Trimmed(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Returns nil on an empty or all whitespace string
func StringOrNil(s string) *string {
	if t, ok := Trimmed(s); ok {
		return &t
	}
	return nil
}
