package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Driver)
	assert.NotEmpty(t, s.DSN)
	assert.False(t, s.Debug)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"driver: postgres\ndsn: postgres://localhost/app\ndatabase: app\ndebug: true\n",
	), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", s.Driver)
	assert.Equal(t, "postgres://localhost/app", s.DSN)
	assert.Equal(t, "app", s.Database)
	assert.True(t, s.Debug)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", s.Driver)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LOOM_DRIVER", "mysql")
	t.Setenv("LOOM_DSN", "root@/app")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mysql", s.Driver)
	assert.Equal(t, "root@/app", s.DSN)
}

func TestValidate(t *testing.T) {
	err := (&Settings{DSN: "x"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver is required")

	err = (&Settings{Driver: "mysql"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")

	assert.NoError(t, (&Settings{Driver: "anything", DSN: "x"}).Validate())
}
