package logging

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	mdwlog "github.com/msto63/bexpr/foundation/core/log"
)

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	extra := &bytes.Buffer{}
	logger := NewLogger(LoggerConfig{
		ServiceName:       "bexpr",
		Level:             "debug",
		Format:            "text",
		Output:            buf,
		AdditionalOutputs: []io.Writer{extra},
	})

	require.Equal(t, mdwlog.LevelDebug, logger.GetLevel())

	logger.Debug("hello")
	require.Contains(t, buf.String(), "{bexpr} hello")
	require.Equal(t, buf.String(), extra.String())
}

func TestNewLogger_InvalidValuesFallBack(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LoggerConfig{Level: "chatty", Format: "xml", Output: buf})

	require.Equal(t, mdwlog.LevelInfo, logger.GetLevel())
	logger.Info("plain")
	require.Contains(t, buf.String(), "[INF] plain")
}

func TestLogger_KeyValues(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(LoggerConfig{ServiceName: "gateway", Level: "info", Format: "text", Output: buf})

	logger := Wrap(base).With("addr", ":8080")
	logger.Info("Listening", "clients", 2, "dangling")

	require.Contains(t, buf.String(), "[addr=:8080 clients=2]")
	require.NotContains(t, buf.String(), "dangling")
}

func TestToFields(t *testing.T) {
	require.Nil(t, toFields())
	require.Equal(t, mdwlog.Fields{"a": 1}, toFields("a", 1, 2, 3))
}
