package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// GlobalConfig is config.toml: user settings plus the dependencies of the
// global scope.
type GlobalConfig struct {
	ModulesDir         string                    `toml:"modules_dir,omitempty"`
	CacheDir           string                    `toml:"cache_dir,omitempty"`
	DefaultGitProvider string                    `toml:"default_git_provider,omitempty"`
	Jobs               int                       `toml:"jobs,omitempty"`
	Dependencies       map[string]DependencySpec `toml:"dependencies"`
}

func defaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		DefaultGitProvider: DefaultGitProvider,
		Dependencies:       map[string]DependencySpec{},
	}
}

// LoadGlobalConfig reads the global config at path, writing a default one
// first if none exists.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := defaultGlobalConfig()
		if err := SaveGlobalConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Msg: "reading global config", Err: err}
	}

	cfg := &GlobalConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Path: path, Msg: "decoding TOML", Err: err}
	}
	if cfg.Dependencies == nil {
		cfg.Dependencies = map[string]DependencySpec{}
	}
	err = checkEmptyRefs(data)
	if err == nil {
		err = ValidateDependencies(cfg.Dependencies)
	}
	if err != nil {
		var merr *ManifestError
		if errors.As(err, &merr) {
			merr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// SaveGlobalConfig writes cfg to path, creating the parent directory.
func SaveGlobalConfig(path string, cfg *GlobalConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SortedNames returns the keys of deps in lexicographic order.
func SortedNames[V any](deps map[string]V) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return xdg.Home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(xdg.Home, rest)
	}
	return path
}
