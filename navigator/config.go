package navigator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when LoadConfig is called with an empty path.
const DefaultConfigFile = "healthnav.yaml"

// LoadConfig loads configuration from the given path or the default healthnav.yaml.
// A missing file is not an error; defaults are returned instead.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = DefaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ResolvePaths joins every relative file path in the config onto dir. The
// ORT library path is left alone so the loader can search for it.
func (c *Config) ResolvePaths(dir string) {
	if dir == "" {
		return
	}
	for _, p := range []*string{
		&c.Dataset.Path,
		&c.Model.SavePath,
		&c.Model.LoadPath,
		&c.History.Path,
		&c.Embedder.ModelPath,
		&c.Embedder.TokenizerPath,
		&c.Embedder.CacheDir,
		&c.Log.File,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
