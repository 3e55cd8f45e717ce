package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, "username: maker\nsession_id: abc123\nproject: \"604568050\"\nturbowarp: true\n")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "maker", cfg.Username)
	assert.Equal(t, "abc123", cfg.SessionID)
	assert.Equal(t, "604568050", cfg.Project)
	assert.True(t, cfg.Turbowarp)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "username: maker\nproject: \"111\"\n")
	t.Setenv("CLOUDVAR_PROJECT", "222")
	t.Setenv("CLOUDVAR_SESSION_ID", "tok")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "maker", cfg.Username)
	assert.Equal(t, "222", cfg.Project)
	assert.Equal(t, "tok", cfg.SessionID)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfigFile(t, "username: [unterminated\n")
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestOverrideFromFlags(t *testing.T) {
	origUser, origProject, origTurbo := flagUsername, flagProject, flagTurbo
	t.Cleanup(func() { flagUsername, flagProject, flagTurbo = origUser, origProject, origTurbo })

	flagUsername = "other"
	flagProject = "999"
	flagTurbo = true

	cfg := overrideFromFlags(Config{Username: "maker", Project: "111"})
	assert.Equal(t, "other", cfg.Username)
	assert.Equal(t, "999", cfg.Project)
	assert.True(t, cfg.Turbowarp)
}
