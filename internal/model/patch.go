package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Field is a JSON value that remembers whether its key was present in the
// payload. A present null sets Null. Absent keys leave Set false.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}

// Present reports whether the key was sent with a non-null value.
func (f Field[T]) Present() bool { return f.Set && !f.Null }

// Some returns a Field holding v, as if decoded from a present key.
func Some[T any](v T) Field[T] { return Field[T]{Set: true, Value: v} }

// Null returns a Field representing an explicit JSON null.
func Null[T any]() Field[T] { return Field[T]{Set: true, Null: true} }

var ErrInvalidDate = errors.New("invalid date format")

// dateLayouts are tried in order. The minute-precision layouts match what
// HTML datetime-local inputs submit.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC3339 and the common local layouts. Values without a
// zone are read as UTC. The result is always in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
