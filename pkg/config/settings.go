package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// DefaultGitProvider expands owner/repo shorthand when nothing else is configured.
const DefaultGitProvider = "github"

// EnvPrefix prefixes every environment override, e.g. NUANCE_CACHE_DIR.
const EnvPrefix = "NUANCE"

// Settings is the effective configuration, resolved with Viper precedence:
// CLI flags > NUANCE_* environment > config.toml > built-in defaults.
type Settings struct {
	CacheDir           string `mapstructure:"cache_dir"`
	ModulesDir         string `mapstructure:"modules_dir"`
	DefaultGitProvider string `mapstructure:"default_git_provider"`
	Jobs               int    `mapstructure:"jobs"`
}

// Overrides carries values set explicitly on the command line. Zero values
// are ignored.
type Overrides struct {
	CacheDir string
	Jobs     int
}

// LoadSettings resolves settings against the global config file.
func LoadSettings(o Overrides) (*Settings, error) {
	return loadSettings(o, GlobalConfigPath())
}

// loadSettings accepts an explicit config path so tests do not touch the
// real config directory.
func loadSettings(o Overrides, globalPath string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")

	// Every key needs a default so AutomaticEnv applies during Unmarshal.
	v.SetDefault("cache_dir", DefaultCacheDir())
	v.SetDefault("modules_dir", DefaultGlobalModulesDir())
	v.SetDefault("default_git_provider", DefaultGitProvider)
	v.SetDefault("jobs", 1)

	if _, err := os.Stat(globalPath); err == nil {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Path: globalPath, Msg: "reading settings", Err: err}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if o.CacheDir != "" {
		v.Set("cache_dir", o.CacheDir)
	}
	if o.Jobs != 0 {
		v.Set("jobs", o.Jobs)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, &ConfigError{Msg: "unmarshaling settings", Err: err}
	}

	if s.Jobs < 1 {
		return nil, &ConfigError{Msg: fmt.Sprintf("jobs must be at least 1, got %d", s.Jobs)}
	}
	if s.CacheDir == "" {
		s.CacheDir = DefaultCacheDir()
	}
	if s.ModulesDir == "" {
		s.ModulesDir = DefaultGlobalModulesDir()
	}
	if s.DefaultGitProvider == "" {
		s.DefaultGitProvider = DefaultGitProvider
	}
	s.CacheDir = ExpandHome(s.CacheDir)
	s.ModulesDir = ExpandHome(s.ModulesDir)

	return s, nil
}
