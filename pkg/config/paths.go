package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// ManifestFileName is the per-project manifest.
	ManifestFileName = "mod.toml"
	// LockFileName is the per-project lockfile written next to the manifest.
	LockFileName = "mod.lock"
	// ModulesDirName is the per-project directory that receives installed modules.
	ModulesDirName = ".nu_modules"
	// EntryPointFileName is the module entry point scaffolded by init.
	EntryPointFileName = "mod.nu"

	// GlobalConfigFileName holds global settings and globally installed dependencies.
	GlobalConfigFileName = "config.toml"
	// GlobalLockFileName is the lockfile for the global scope.
	GlobalLockFileName = "config.lock"

	appName = "nuance"
)

// ConfigDir returns $XDG_CONFIG_HOME/nuance.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// GlobalConfigPath returns the path of the global config file.
func GlobalConfigPath() string {
	return filepath.Join(ConfigDir(), GlobalConfigFileName)
}

// GlobalLockPath returns the path of the global lockfile.
func GlobalLockPath() string {
	return filepath.Join(ConfigDir(), GlobalLockFileName)
}

// DefaultGlobalModulesDir is where Nushell looks for vendored modules:
// $XDG_CONFIG_HOME/nushell/vendor/nuance_modules.
func DefaultGlobalModulesDir() string {
	return filepath.Join(xdg.ConfigHome, "nushell", "vendor", "nuance_modules")
}

// DefaultCacheDir returns the default git cache root, $XDG_CACHE_HOME/nuance/git.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, appName, "git")
}
