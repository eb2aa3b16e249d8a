// File: level.go
// Title: Log Level Definitions
// Description: Log levels for filtering and controlling log output.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with standard log levels
// - 2025-06-02 v0.2.0: Level names, abbreviations and colors in one table

package log

import (
	"strings"
)

// Level represents the importance level of a log message
type Level int

const (
	// LevelTrace is the most verbose level, one entry per evaluated statement
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	// LevelAudit entries are written regardless of the configured level
	LevelAudit
)

var levels = [...]struct {
	name, short, color string
	aliases            []string
}{
	LevelTrace: {"trace", "TRC", "\033[37m", nil},
	LevelDebug: {"debug", "DBG", "\033[36m", nil},
	LevelInfo:  {"info", "INF", "\033[32m", []string{"information"}},
	LevelWarn:  {"warn", "WRN", "\033[33m", []string{"warning"}},
	LevelError: {"error", "ERR", "\033[31m", []string{"err"}},
	LevelFatal: {"fatal", "FTL", "\033[35m", nil},
	LevelAudit: {"audit", "AUD", "\033[34m", nil},
}

func (l Level) valid() bool {
	return l >= LevelTrace && l <= LevelAudit
}

// String returns the lower-case name of the level
func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levels[l].name
}

// ShortString returns the three letter form used by the text format
func (l Level) ShortString() string {
	if !l.valid() {
		return "???"
	}
	return levels[l].short
}

// Color returns the ANSI color code for the log level
func (l Level) Color() string {
	if !l.valid() {
		return "\033[0m"
	}
	return levels[l].color
}

// ShouldLog reports whether an entry at l passes minLevel
func (l Level) ShouldLog(minLevel Level) bool {
	return l == LevelAudit || l >= minLevel
}

// ParseLevel accepts level names, their three letter forms and a few
// common aliases, case-insensitively
func ParseLevel(level string) (Level, error) {
	s := strings.ToLower(strings.TrimSpace(level))
	for l, info := range levels {
		if s == info.name || s == strings.ToLower(info.short) {
			return Level(l), nil
		}
		for _, alias := range info.aliases {
			if s == alias {
				return Level(l), nil
			}
		}
	}
	return LevelInfo, &ParseError{Input: level, Type: "level"}
}

// ParseError represents an error parsing a log configuration value
type ParseError struct {
	Input string
	Type  string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return "invalid " + e.Type + ": " + e.Input
}

// DefaultLevel returns the default log level
func DefaultLevel() Level {
	return LevelInfo
}
