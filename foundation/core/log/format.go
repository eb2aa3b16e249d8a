// File: format.go
// Title: Log Output Formats
// Description: JSON lines for machines; plain or colored single-line text
//              for terminals.
// Author: msto63
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with multiple output formats
// - 2025-04-22 v0.2.0: Deterministic field order in text output
// - 2025-06-02 v0.3.0: Console output folded into the text formatter

package log

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format selects how entries are rendered
type Format int

const (
	FormatJSON Format = iota
	FormatText
	FormatConsole
)

var formatNames = [...]string{
	FormatJSON:    "json",
	FormatText:    "text",
	FormatConsole: "console",
}

// String returns the configuration name of the format
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// ParseFormat parses a configuration name into a Format
func ParseFormat(format string) (Format, error) {
	s := strings.ToLower(strings.TrimSpace(format))
	for f, name := range formatNames {
		if s == name {
			return Format(f), nil
		}
	}
	return FormatJSON, &ParseError{Input: format, Type: "format"}
}

// Formatter renders one entry including its trailing newline
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// NewFormatter returns the formatter for format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatText:
		return &TextFormatter{TimeLayout: "15:04:05"}
	case FormatConsole:
		return &TextFormatter{TimeLayout: "15:04:05", Color: true}
	default:
		return &JSONFormatter{TimeLayout: time.RFC3339}
	}
}

// JSONFormatter writes one JSON object per entry. Context fields share the
// top level with the fixed keys, which win on conflicts.
type JSONFormatter struct {
	TimeLayout string
}

// Format implements Formatter
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	obj := make(map[string]interface{}, len(entry.Fields)+8)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		obj[k] = v
	}

	obj["timestamp"] = entry.Timestamp.Format(f.TimeLayout)
	obj["level"] = entry.Level.String()
	obj["message"] = entry.Message
	setIf(obj, "logger", entry.Logger)
	setIf(obj, "request_id", entry.RequestID)
	setIf(obj, "caller", entry.Caller)

	if entry.Error != nil {
		obj["error"] = entry.Error.Error()
		if m, ok := entry.Error.(json.Marshaler); ok {
			if raw, err := m.MarshalJSON(); err == nil {
				obj["error_details"] = json.RawMessage(raw)
			}
		}
	}
	if entry.Duration > 0 {
		obj["duration_ms"] = float64(entry.Duration.Nanoseconds()) / 1e6
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func setIf(obj map[string]interface{}, key, value string) {
	if value != "" {
		obj[key] = value
	}
}

// TextFormatter writes entries as
//
//	15:04:05 [INF] {name} (req=id) message [k=v ...] error="..." duration=...
//
// An empty TimeLayout omits the timestamp. Color wraps the line in the
// level's ANSI color.
type TextFormatter struct {
	TimeLayout string
	Color      bool
}

// Format implements Formatter
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder
	if f.Color {
		b.WriteString(entry.Level.Color())
	}

	if f.TimeLayout != "" {
		b.WriteString(entry.Timestamp.Format(f.TimeLayout))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] ", entry.Level.ShortString())
	if entry.Logger != "" {
		fmt.Fprintf(&b, "{%s} ", entry.Logger)
	}
	if entry.RequestID != "" {
		fmt.Fprintf(&b, "(req=%s) ", entry.RequestID)
	}
	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		b.WriteString(" [")
		for i, k := range entry.Fields.sortedKeys() {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%v", k, entry.Fields[k])
		}
		b.WriteByte(']')
	}
	if entry.Error != nil {
		fmt.Fprintf(&b, " error=%q", entry.Error.Error())
	}
	if entry.Duration > 0 {
		fmt.Fprintf(&b, " duration=%s", entry.Duration)
	}
	if entry.Caller != "" {
		b.WriteString(" caller=" + entry.Caller)
	}

	if f.Color {
		b.WriteString("\033[0m")
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
