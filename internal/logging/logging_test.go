package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Shoaibashk/serialmon/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "logfmt"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("opened", "device", "/dev/ttyUSB0")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "opened")
	assert.Contains(t, out, "device=/dev/ttyUSB0")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(config.LoggingConfig{Level: "DEBUG", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("decode anomaly", "bytes", 3)
	assert.Contains(t, buf.String(), `"msg":"decode anomaly"`)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, _, err = New(config.LoggingConfig{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serialmon.log")

	var stderr bytes.Buffer
	logger, closer, err := New(config.LoggingConfig{
		Level:      "info",
		File:       path,
		MaxSize:    1,
		MaxBackups: 1,
	}, &stderr)
	require.NoError(t, err)

	logger.Info("run complete")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run complete")
	assert.Empty(t, stderr.String())
}
