package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	mdwerror "github.com/msto63/bexpr/foundation/core/error"
)

func newTestLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWithConfig(Config{Level: level, Format: format, Output: buf, Name: "test"}), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, m)
	}
	return entries
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level    Level
		expected int
	}{
		{LevelTrace, 6},
		{LevelDebug, 5},
		{LevelInfo, 4},
		{LevelWarn, 3},
		{LevelError, 2},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			logger, buf := newTestLogger(tt.level, FormatJSON)
			logger.Trace("t")
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")
			logger.Audit("a")

			if got := len(decodeLines(t, buf)); got != tt.expected {
				t.Errorf("got %d entries, want %d", got, tt.expected)
			}
		})
	}
}

func TestLogger_JSONFields(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug, FormatJSON)
	logger.WithField("component", "evaluator").WithRequestID("req-7").Debug("Statement rejected", Fields{"line": 3})

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}

	e := entries[0]
	expected := map[string]interface{}{
		"message":    "Statement rejected",
		"level":      "debug",
		"logger":     "test",
		"component":  "evaluator",
		"request_id": "req-7",
		"line":       float64(3),
	}
	for k, v := range expected {
		if e[k] != v {
			t.Errorf("%s = %v, want %v", k, e[k], v)
		}
	}
}

func TestLogger_WithFieldIsImmutable(t *testing.T) {
	base, buf := newTestLogger(LevelInfo, FormatJSON)
	_ = base.WithField("derived", true)
	base.Info("plain")

	entries := decodeLines(t, buf)
	if _, ok := entries[0]["derived"]; ok {
		t.Error("WithField must not modify the parent logger")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo, FormatText)
	logger.Info("Serving", Fields{"port": 9090, "addr": "localhost"})

	line := buf.String()
	for _, want := range []string{"[INF]", "{test}", "Serving", "[addr=localhost port=9090]"} {
		if !strings.Contains(line, want) {
			t.Errorf("text output %q missing %q", line, want)
		}
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	logger, buf := newTestLogger(LevelInfo, FormatConsole)
	logger.Warn("careful")

	if !strings.HasPrefix(buf.String(), LevelWarn.Color()) || !strings.HasSuffix(buf.String(), "\033[0m\n") {
		t.Errorf("console output not colored: %q", buf.String())
	}
}

func TestLogger_LogError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
		code  interface{}
	}{
		{
			name:  "low severity logs at info",
			err:   mdwerror.New("Syntax Error: ';' expected").WithCode(mdwerror.CodeExprSyntax).WithDetail("line", 2),
			level: "info",
			code:  "EXPR_SYNTAX",
		},
		{
			name:  "high severity logs at error",
			err:   mdwerror.New("locked").WithCode(mdwerror.CodeDatabaseError),
			level: "error",
			code:  "DATABASE_ERROR",
		},
		{
			name:  "plain errors log at error",
			err:   errors.New("boom"),
			level: "error",
			code:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(LevelTrace, FormatJSON)
			logger.LogError(tt.err)

			entries := decodeLines(t, buf)
			if len(entries) != 1 {
				t.Fatalf("expected one entry, got %d", len(entries))
			}
			if entries[0]["level"] != tt.level {
				t.Errorf("level = %v, want %v", entries[0]["level"], tt.level)
			}
			if entries[0]["error_code"] != tt.code {
				t.Errorf("error_code = %v, want %v", entries[0]["error_code"], tt.code)
			}
		})
	}

	logger, buf := newTestLogger(LevelTrace, FormatJSON)
	logger.LogError(nil)
	if buf.Len() != 0 {
		t.Error("LogError(nil) must not write")
	}
}

func TestLogger_Caller(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithConfig(Config{Level: LevelInfo, Format: FormatText, Output: buf, EnableCaller: true})
	logger.Info("here")

	if !strings.Contains(buf.String(), "caller=logger_test.go:") {
		t.Errorf("expected caller of Info, got %q", buf.String())
	}
}

func TestTimer(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug, FormatJSON)
	timer := logger.StartTimer("evaluate_file").WithField("statements", 4)
	time.Sleep(time.Millisecond)

	if elapsed := timer.Stop(); elapsed < time.Millisecond {
		t.Errorf("elapsed = %v", elapsed)
	}
	timer.Stop()

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("Stop should log exactly once, got %d entries", len(entries))
	}
	if entries[0]["operation"] != "evaluate_file" || entries[0]["statements"] != float64(4) {
		t.Errorf("unexpected timer entry %v", entries[0])
	}
	if _, ok := entries[0]["duration_ms"]; !ok {
		t.Error("timer entry missing duration_ms")
	}
}

func TestTimer_Fail(t *testing.T) {
	logger, buf := newTestLogger(LevelWarn, FormatJSON)

	logger.StartTimer("quiet").Stop()
	logger.StartTimer("session").WithField("lines", 2).Fail(errors.New("read failed"))

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected only the failure entry, got %d", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[0]["error"] != "read failed" || entries[0]["operation"] != "session" {
		t.Errorf("unexpected failure entry %v", entries[0])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"err", LevelError, false},
		{"audit", LevelAudit, false},
		{"loud", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr || got != tt.expected {
			t.Errorf("ParseLevel(%q) = (%v, %v)", tt.input, got, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "text", "console"} {
		f, err := ParseFormat(name)
		if err != nil || f.String() != name {
			t.Errorf("ParseFormat(%q) = (%v, %v)", name, f, err)
		}
	}

	_, err := ParseFormat("xml")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Type != "format" {
		t.Errorf("expected format ParseError, got %v", err)
	}
}

func TestDefault(t *testing.T) {
	original := GetDefault()
	defer SetDefault(original)

	logger, buf := newTestLogger(LevelInfo, FormatText)
	SetDefault(logger)
	GetDefault().Info("via default")

	if !strings.Contains(buf.String(), "via default") {
		t.Error("SetDefault did not replace the default logger")
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing")
}
