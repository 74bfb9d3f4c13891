package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := GetLogger()
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	logger.Info("search finished", map[string]interface{}{
		"results": 3,
		"query":   "Breaking Bad",
	})

	out := buf.String()
	assert.Contains(t, out, "search finished")
	require.Contains(t, out, "query=")
	require.Contains(t, out, "results=3")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("query=")), bytes.Index(buf.Bytes(), []byte("results=")))
}

func TestInitLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLogger(dir, "debug"))

	logger := GetLogger()
	t.Cleanup(func() {
		logger.Close()
		logger.SetOutput(os.Stdout)
	})

	logger.Debug("written to disk", nil)

	data, err := os.ReadFile(filepath.Join(dir, "server.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")
}

func TestSetConsoleKeepsRotatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitLogger(dir, "info"))

	logger := GetLogger()
	t.Cleanup(func() {
		logger.Close()
		logger.SetOutput(os.Stdout)
	})

	var console bytes.Buffer
	logger.SetConsole(&console)
	logger.Info("recap ready", nil)

	assert.Contains(t, console.String(), "recap ready")
	data, err := os.ReadFile(filepath.Join(dir, "server.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "recap ready")
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, InitLogger(t.TempDir(), "chatty"))
}
