package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunCheck(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		amount   string
		unit     string
		exitCode int
		output   string
	}{
		{"elapsed", "2016-01-01", "2016-12-31", "11", "months", exitElapsed, "P11M30D (11 months) elapsed >= 11 months: true"},
		{"not elapsed", "2016-01-01", "2016-12-31", "1", "year", exitNotElapsed, "P11M30D (0 years) elapsed >= 1 year: false"},
		{"singular amount and actual", "2017-01-31", "2017-03-01", "1", "months", exitElapsed, "P1M1D (1 month) elapsed >= 1 month: true"},
		{"decimal one is singular", "2016-01-01", "2016-01-03", " 1.0 ", "day", exitElapsed, "P2D (2 days) elapsed >= 1.0 day: true"},
		{"plural amount", "2016-01-01", "2016-01-03", "3", "day", exitNotElapsed, "P2D (2 days) elapsed >= 3 days: false"},
		{"unit case", "2016-01-01 00:00:00", "2016-01-01 12:30:00", "12", "HOURS", exitElapsed, "PT12H30M (12 hours) elapsed >= 12 hours: true"},
		{"inverted", "2016-12-31", "2016-01-01", "1", "days", exitError, "error: "},
		{"bad timestamp", "yesterday", "2016-01-01", "1", "days", exitError, "error: Invalid timestamp 'yesterday'"},
		{"bad amount", "2016-01-01", "2016-12-31", "many", "days", exitError, "error: "},
		{"bad unit", "2016-01-01", "2016-12-31", "1", "fortnights", exitError, "error: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.exitCode, runCheck(tt.start, tt.end, tt.amount, tt.unit, time.UTC, &out))
			assert.Contains(t, out.String(), tt.output)
		})
	}
}
