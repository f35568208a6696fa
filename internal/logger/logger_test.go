package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/logger"
)

func TestSetup_LevelAndFileSink(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	path := filepath.Join(t.TempDir(), "api.log")
	closer, err := logger.Setup(config.LoggingConfig{Level: "warn", Format: "json", File: path}, true)
	require.NoError(t, err)

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	log.Warn().Str("user_id", "u1").Msg("written to file")
	require.NoError(t, closer.Close())

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), `"user_id":"u1"`)
}

func TestSetup_UnknownLevelDefaultsToInfo(t *testing.T) {
	closer, err := logger.Setup(config.LoggingConfig{Level: "chatty"}, false)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
