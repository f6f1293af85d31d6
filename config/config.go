// Package config loads the optional .phpsense.toml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// FileName is looked up in the project root.
const FileName = ".phpsense.toml"

type Config struct {
	Index      Index      `toml:"index"`
	Completion Completion `toml:"completion"`
	Watch      Watch      `toml:"watch"`
	Log        Log        `toml:"log"`
}

type Index struct {
	Extensions []string `toml:"extensions"`
	BatchSize  int      `toml:"batch_size"`
	// Exclude holds glob patterns matched against slash-separated paths
	// relative to the root.
	Exclude  []string `toml:"exclude"`
	SkipDirs []string `toml:"skip_dirs"`
}

type Completion struct {
	MaxItems int `toml:"max_items"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if len(cfg.Index.Extensions) == 0 {
		cfg.Index.Extensions = []string{".php"}
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 10
	}
	if cfg.Completion.MaxItems == 0 {
		cfg.Completion.MaxItems = 50
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

// Load reads path, fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDir loads FileName from dir, returning defaults when it does not exist.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func normalize(cfg *Config) {
	exts := cfg.Index.Extensions[:0]
	for _, ext := range cfg.Index.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	cfg.Index.Extensions = exts
}

func Validate(cfg *Config) error {
	if cfg.Index.BatchSize < 1 {
		return fmt.Errorf("index.batch_size must be at least 1, got %d", cfg.Index.BatchSize)
	}
	if cfg.Completion.MaxItems < 1 {
		return fmt.Errorf("completion.max_items must be at least 1, got %d", cfg.Completion.MaxItems)
	}
	if len(cfg.Index.Extensions) == 0 {
		return errors.New("index.extensions must not be empty")
	}
	for _, ext := range cfg.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("index.extensions: %q must start with a dot", ext)
		}
	}
	if _, err := CompileGlobs(cfg.Index.Exclude); err != nil {
		return fmt.Errorf("index.exclude: %w", err)
	}
	return nil
}

// CompileGlobs compiles patterns with '/' as the separator so that '*'
// stays within one path segment.
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
