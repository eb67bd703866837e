package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/lfskit/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "lfskit")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	path := filepath.Join(configDir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Mirror.Repository)
	assert.Nil(t, cfg.Chunk.PartSize)
	assert.Empty(t, cfg.Chunk.Files)
	assert.Nil(t, cfg.Theme.Green)
}

func TestLoad_FullConfig(t *testing.T) {
	writeConfig(t, `
[mirror]
repository = "octo/courses"
folder = "Courses/ML"
branch = "dev"
dest = "out"
api_url = "https://ghe.example.com/api/v3"
max_depth = 8
bwlimit = "10M"
timeout = "30s"
max_size = "100M"
rules = ["+ *.ipynb", "- *.mp4"]

[chunk]
files = ["a.bin", "b/c.h5"]
part_size = "50M"
mode = "merge"

[theme]
green = "#00ff00"
red = "#ff0000"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Mirror.Repository)
	assert.Equal(t, "octo/courses", *cfg.Mirror.Repository)
	require.NotNil(t, cfg.Mirror.Folder)
	assert.Equal(t, "Courses/ML", *cfg.Mirror.Folder)
	require.NotNil(t, cfg.Mirror.Branch)
	assert.Equal(t, "dev", *cfg.Mirror.Branch)
	require.NotNil(t, cfg.Mirror.APIURL)
	assert.Equal(t, "https://ghe.example.com/api/v3", *cfg.Mirror.APIURL)
	require.NotNil(t, cfg.Mirror.MaxDepth)
	assert.Equal(t, 8, *cfg.Mirror.MaxDepth)
	require.NotNil(t, cfg.Mirror.Timeout)
	assert.Equal(t, "30s", *cfg.Mirror.Timeout)
	require.NotNil(t, cfg.Mirror.MaxSize)
	assert.Equal(t, "100M", *cfg.Mirror.MaxSize)
	assert.Equal(t, []string{"+ *.ipynb", "- *.mp4"}, cfg.Mirror.Rules)

	assert.Equal(t, []string{"a.bin", "b/c.h5"}, cfg.Chunk.Files)
	require.NotNil(t, cfg.Chunk.PartSize)
	assert.Equal(t, "50M", *cfg.Chunk.PartSize)
	require.NotNil(t, cfg.Chunk.Mode)
	assert.Equal(t, "merge", *cfg.Chunk.Mode)

	require.NotNil(t, cfg.Theme.Green)
	assert.Equal(t, "#00ff00", *cfg.Theme.Green)

	// Unset fields should remain nil.
	assert.Nil(t, cfg.Mirror.Token)
	assert.Nil(t, cfg.Theme.Bright)
}

func TestLoad_PartialConfig(t *testing.T) {
	writeConfig(t, `
[chunk]
part_size = "1G"
`)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Nil(t, cfg.Mirror.Repository)
	assert.Nil(t, cfg.Chunk.Mode)
	require.NotNil(t, cfg.Chunk.PartSize)
	assert.Equal(t, "1G", *cfg.Chunk.PartSize)
}

func TestLoad_InvalidTOML(t *testing.T) {
	writeConfig(t, "invalid [[[")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_UnknownKey(t *testing.T) {
	writeConfig(t, `
[mirror]
repo = "typo/for-repository"
`)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror.repo")
}

func TestLoadFile_MissingIsError(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/lfskit/config.toml", config.Path())
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, config.WriteFile(path, config.Example(), false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Mirror.Repository)
	assert.Equal(t, "rohan-gt/deeplearning-ai-courses", *cfg.Mirror.Repository)
	require.NotNil(t, cfg.Chunk.PartSize)
	assert.Equal(t, "90M", *cfg.Chunk.PartSize)
	assert.Len(t, cfg.Chunk.Files, 2)
	assert.Equal(t, []string{"- *.mp4"}, cfg.Mirror.Rules)
}

func TestWriteFile_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))

	err := config.WriteFile(path, config.Example(), false)
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(got))

	require.NoError(t, config.WriteFile(path, config.Example(), true))
}
