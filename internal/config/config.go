package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the optional lfskit configuration file. Every field is a
// pointer or slice so that "unset" is distinguishable from a zero value and
// command-line flags can take precedence.
type Config struct {
	Mirror MirrorConfig `toml:"mirror"`
	Chunk  ChunkConfig  `toml:"chunk"`
	Theme  ThemeConfig  `toml:"theme"`
}

// MirrorConfig holds defaults for the mirror command.
type MirrorConfig struct {
	Repository *string `toml:"repository"`
	Folder     *string `toml:"folder"`
	Branch     *string `toml:"branch"`
	Dest       *string `toml:"dest"`
	APIURL     *string `toml:"api_url"`
	Token      *string `toml:"token"`
	MaxDepth   *int    `toml:"max_depth"`
	BWLimit    *string `toml:"bwlimit"`
	Timeout    *string `toml:"timeout"`
	MaxSize    *string `toml:"max_size"`
	// Rules are filter lines, "+ glob" to include and "- glob" to exclude,
	// applied before any --include/--exclude flags.
	Rules []string `toml:"rules"`
}

// ChunkConfig holds defaults for the split, merge and chunk commands.
type ChunkConfig struct {
	Files    []string `toml:"files"`
	PartSize *string  `toml:"part_size"`
	Mode     *string  `toml:"mode"`
}

// ThemeConfig holds optional color overrides for the completion summary.
type ThemeConfig struct {
	Green  *string `toml:"green"`
	Red    *string `toml:"red"`
	Muted  *string `toml:"muted"`
	Bright *string `toml:"bright"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "lfskit", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}

	cfg, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads the config file at path. Unlike Load, a missing file is an
// error: callers use it for paths the user named explicitly.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
