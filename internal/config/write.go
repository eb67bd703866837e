package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Example returns a starter configuration mirroring a course folder and
// splitting two large model files.
func Example() Config {
	return Config{
		Mirror: MirrorConfig{
			Repository: ptr("rohan-gt/deeplearning-ai-courses"),
			Folder:     ptr("Courses/Machine Learning/00. Prerequisites"),
			Branch:     ptr("main"),
			Dest:       ptr("."),
			Rules:      []string{"- *.mp4"},
		},
		Chunk: ChunkConfig{
			Files: []string{
				"model/pytorch/pytorch_model.bin",
				"model/tensorflow/tf_model.h5",
			},
			PartSize: ptr("90M"),
			Mode:     ptr("split"),
		},
	}
}

// WriteFile encodes cfg as TOML and writes it to path, creating the parent
// directory if needed. An existing file is left alone unless force is set.
func WriteFile(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	// The token may be a credential.
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func ptr[T any](v T) *T { return &v }
