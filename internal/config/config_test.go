package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.ListenAddr)
	assert.Equal(t, "https://discord.com/api/v10", c.APIBaseURL)
	assert.Equal(t, 2, c.MaxConcurrency)
	assert.Equal(t, 5, c.MaxRetries)
	assert.Equal(t, 1*time.Second, c.BaseBackoff)
	assert.Equal(t, 500*time.Millisecond, c.MaxJitter)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, common.FileSizeLimit, c.FileSizeLimit)
	assert.Equal(t, "guildstore.db", c.JournalDSN)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.S3Bucket)
	assert.False(t, c.MirrorEnabled())
}

func TestLoadConfig_UsesDefaultsWithoutSources(t *testing.T) {
	origArgs, origEnv := os.Args, dotEnvFile
	t.Cleanup(func() { os.Args, dotEnvFile = origArgs, origEnv })

	os.Args = []string{"guildstore"}
	dotEnvFile = ""

	c := LoadConfig()
	require.NotNil(t, c, "LoadConfig must not return nil")

	var want Config
	want.LoadDefaults()
	// environment of the test runner may carry GUILDSTORE_* values
	want.BotToken, want.GroupID = c.BotToken, c.GroupID
	want.APIBaseURL, want.JournalDSN = c.APIBaseURL, c.JournalDSN
	want.S3RootUser, want.S3RootPassword = c.S3RootUser, c.S3RootPassword
	assert.Equal(t, want, *c)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"listen_addr":     ":7000",
		"max_concurrency": 4,
	})
	os.Args = []string{"guildstore", "-c", path, "-a", ":9000"}

	c := LoadConfig()
	assert.Equal(t, ":9000", c.ListenAddr)
	assert.Equal(t, 4, c.MaxConcurrency)
}

func TestMirrorEnabled(t *testing.T) {
	c := Config{S3Bucket: "mirror"}
	assert.True(t, c.MirrorEnabled())
}
