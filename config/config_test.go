package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/config"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	loaded, err := config.LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, "memory", loaded.Storage.Backend)
	assert.Equal(t, ":8080", loaded.Server.Address)
	assert.Equal(t, 24*time.Hour, loaded.Auth.TokenDuration)
	assert.Equal(t, "info", loaded.Log.Level)
	assert.False(t, loaded.AuthEnabled())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "egonet.yaml")
	content := `
storage:
  backend: bolt
  path: /tmp/egonet.db
auth:
  secret: s3cr3t
  users:
    alice: wonderland
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("EGONET_SERVER_ADDRESS", "localhost:9090")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt", loaded.Storage.Backend)
	assert.Equal(t, "/tmp/egonet.db", loaded.Storage.Path)
	assert.Equal(t, "localhost:9090", loaded.Server.Address)
	assert.Equal(t, map[string]string{"alice": "wonderland"}, loaded.Auth.Users)
	assert.True(t, loaded.AuthEnabled())
}

func TestValidation(t *testing.T) {
	valid := config.Config{
		Storage: config.StorageConfig{Backend: "memory"},
		Server:  config.ServerConfig{Address: ":8080"},
	}

	require.NoError(t, valid.Validate())

	for name, change := range map[string]func(*config.Config){
		"backend":  func(c *config.Config) { c.Storage.Backend = "sqlite" },
		"path":     func(c *config.Config) { c.Storage.Backend = "badger" },
		"url":      func(c *config.Config) { c.Storage.Backend = "postgres" },
		"address":  func(c *config.Config) { c.Server.Address = "8080" },
		"duration": func(c *config.Config) { c.Auth.Secret = "secret" },
	} {
		current := valid
		change(&current)
		assert.Error(t, current.Validate(), name)
	}
}

func TestMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
