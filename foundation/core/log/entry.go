// File: entry.go
// Title: Log Entry Structure
// Description: One log record as handed to a Formatter.
// Author: msto63
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with log entry structure
// - 2025-06-02 v0.3.0: Caller kept as file:line, unused field helpers removed

package log

import (
	"sort"
	"time"
)

// Fields represents custom key-value pairs for structured logging
type Fields map[string]interface{}

// copyFields returns a copy of f extended by every set in extra. Later
// sets win on conflicts.
func copyFields(f Fields, extra ...Fields) Fields {
	n := len(f)
	for _, e := range extra {
		n += len(e)
	}
	out := make(Fields, n)
	for k, v := range f {
		out[k] = v
	}
	for _, e := range extra {
		for k, v := range e {
			out[k] = v
		}
	}
	return out
}

// sortedKeys returns the field names in sorted order
func (f Fields) sortedKeys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entry represents a single log entry with all its metadata
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Logger    string
	RequestID string
	Fields    Fields
	Error     error
	Duration  time.Duration
	Caller    string // file:line, empty unless enabled
}
