// Package config loads ebbc.toml, the configuration of the lowering pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"ebbc/internal/layout"
)

// FileName is the configuration file searched for by Find.
const FileName = "ebbc.toml"

// Output formats.
const (
	FormatText    = "text"
	FormatMsgpack = "msgpack"
)

var (
	// ErrUnknownFormat indicates an [output].format other than text or msgpack.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrNegativeJobs indicates a negative [lower].jobs.
	ErrNegativeJobs = errors.New("jobs must be >= 0")
)

// Config is the configuration value handed to every pipeline stage.
type Config struct {
	Lower  LowerConfig  `toml:"lower"`
	Output OutputConfig `toml:"output"`
	Cache  CacheConfig  `toml:"cache"`
}

type LowerConfig struct {
	Jobs   int    `toml:"jobs"`   // 0 = GOMAXPROCS
	Target string `toml:"target"` // x86_64 | aarch64
}

type OutputConfig struct {
	Format string `toml:"format"` // text | msgpack
}

type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // "" = user cache dir
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Lower:  LowerConfig{Target: "x86_64"},
		Output: OutputConfig{Format: FormatText},
	}
}

// Find walks up from startDir looking for ebbc.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load parses path on top of Default. Keys missing from the file keep
// their default; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("lower", "target") {
		cfg.Lower.Target = strings.TrimSpace(cfg.Lower.Target)
	}
	if meta.IsDefined("output", "format") {
		cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	}
	if meta.IsDefined("cache", "dir") && cfg.Cache.Dir != "" && !filepath.IsAbs(cfg.Cache.Dir) {
		cfg.Cache.Dir = filepath.Join(filepath.Dir(path), cfg.Cache.Dir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds ebbc.toml above startDir and loads it. Without a file it
// returns Default and an empty path.
func Discover(startDir string) (Config, string, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, "", err
	}
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	if c.Lower.Jobs < 0 {
		return fmt.Errorf("[lower].jobs = %d: %w", c.Lower.Jobs, ErrNegativeJobs)
	}
	if _, err := layout.TargetByName(c.Lower.Target); err != nil {
		return fmt.Errorf("[lower].target: %w", err)
	}
	if !slices.Contains([]string{FormatText, FormatMsgpack}, c.Output.Format) {
		return fmt.Errorf("[output].format = %q: %w", c.Output.Format, ErrUnknownFormat)
	}
	return nil
}

// CacheDir returns the cache directory, falling back to <user cache>/ebbc.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "ebbc"), nil
}
