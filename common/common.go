package common

import (
	"errors"
	"os"
	"strings"
	"time"
	"unicode"
)

// this must be a VARIABLE and _NOT_ a constant so that "go build -ldflags="-X ..." can change this symbol's
// value in the executable
var APPLICATION_VERSION = "dev-snapshot"

// accepted by ParseTimestamp, tried in this order
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func FileExist(file string) bool {
	return !FileDoesNotExist(file)
}

func FileDoesNotExist(file string) bool {
	_, err := os.Stat(file)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true
		}
		panic("Failed to check for file existence: " + err.Error())
	}
	return false
}

func IsBlank(s string) bool {
	for _, c := range s {
		if !unicode.IsSpace(c) {
			return false
		}
	}
	return true
}

func Join[T any](values []T, separator string, mapping func(T) string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, mapping(value))
	}
	return strings.Join(parts, separator)
}

func SleepMillis(millis uint32) {
	time.Sleep(time.Duration(millis) * time.Millisecond)
}

func TimeToString(t time.Time) string {
	format := "2006-01-02 15:04:05-0700"
	return t.Format(format)
}

// ParseTimestamp parses RFC3339 or one of the plain date(-time) layouts.
// Timestamps without zone information are taken to be in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, trimmed, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("Invalid timestamp '" + value + "', expected RFC3339, 'YYYY-MM-DD hh:mm:ss' or 'YYYY-MM-DD'")
}
