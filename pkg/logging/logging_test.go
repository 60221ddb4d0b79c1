package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerVerbosityLevels(t *testing.T) {
	t.Setenv("APPKIT_LOG_DIR", t.TempDir())

	tests := []struct {
		name      string
		verbosity int
		expected  zerolog.Level
	}{
		{"default_warn", 0, zerolog.WarnLevel},
		{"verbose_info", 1, zerolog.InfoLevel},
		{"very_verbose_debug", 2, zerolog.DebugLevel},
		{"trace", 3, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetupLogger(tt.verbosity)
			assert.Equal(t, tt.expected, zerolog.GlobalLevel())
		})
	}
}

func TestSetupLoggerCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APPKIT_LOG_DIR", dir)

	SetupLogger(1)

	_, err := os.Stat(filepath.Join(dir, "appkit.log"))
	require.NoError(t, err)
}

func TestGetLoggerAddsComponent(t *testing.T) {
	logger := GetLogger("settings")
	// The logger carries the component field; this just exercises the path.
	logger.Debug().Msg("test")
}

func TestGetLogFilePathRespectsEnv(t *testing.T) {
	t.Setenv("APPKIT_LOG_DIR", "/custom/logs")
	assert.Equal(t, "/custom/logs/appkit.log", getLogFilePath())
}

func TestLogCommand(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	}()

	LogCommand("git", []string{"clone", "--quiet"})

	assert.Contains(t, buf.String(), "Executing command")
	assert.Contains(t, buf.String(), "git")
	assert.Contains(t, buf.String(), "--quiet")
}

func TestLogOperationStartLogsCompletion(t *testing.T) {
	var buf bytes.Buffer
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(prevLevel)
	logger := zerolog.New(&buf)

	done := LogOperationStart(logger, "install")
	assert.Contains(t, buf.String(), "Operation started")

	done()
	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), "duration")
}
