package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Search.TargetPerItem)
	assert.Equal(t, 5, cfg.Enrich.Workers)
	assert.Equal(t, 6, cfg.Enrich.LinkCheckWorkers)
	assert.Empty(t, cfg.Serper.Key)
	require.Len(t, cfg.Serper.BaseURLs, 2)
	assert.Equal(t, "https://google.serper.dev", cfg.Serper.BaseURLs[0])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHOP_SERPER_KEY", "env-key")
	t.Setenv("SHOP_SEARCH_TARGET_PER_ITEM", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Serper.Key)
	assert.Equal(t, 3, cfg.Search.TargetPerItem)
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
