package logger

import (
	"testing"

	"github.com/mapavioleta/mapavioleta/config"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogsFiltersByLevel(t *testing.T) {
	Debug("debug line")
	Warningf("warning %d", 1)
	Error("error line")

	logs := GetLogs(10, "WARNING")
	assert.Len(t, logs, 2)
	assert.Contains(t, logs[0], "error line")
	assert.Contains(t, logs[1], "warning 1")

	assert.Len(t, GetLogs(1, "DEBUG"), 1)
}

func TestRingOverwritesOldest(t *testing.T) {
	r := newRing(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		r.add(logging.INFO, msg)
	}
	r.add(logging.DEBUG, "e")

	got := r.newest(10, logging.DEBUG)
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "e")
	assert.Contains(t, got[1], "d")
	assert.Contains(t, got[2], "c")

	got = r.newest(10, logging.INFO)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "d")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   config.LogLevel
		want logging.Level
	}{
		{config.Debug, logging.DEBUG},
		{config.Info, logging.INFO},
		{config.Notice, logging.NOTICE},
		{config.Warn, logging.WARNING},
		{config.Error, logging.ERROR},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
