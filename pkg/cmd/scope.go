package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/installer"
	"github.com/nuancepkg/nuance/pkg/logging"
	"github.com/nuancepkg/nuance/pkg/resolver"
	"github.com/nuancepkg/nuance/pkg/source"
	"github.com/nuancepkg/nuance/pkg/store"
)

// scope is where dependencies are declared and installed: the project in the
// working directory, or the global config.
type scope struct {
	global   bool
	dir      string
	manifest *config.Manifest
	cfg      *config.GlobalConfig
	target   installer.Target
}

func addGlobalFlag(cmd *cobra.Command, usage string) {
	cmd.Flags().BoolP("global", "g", false, usage)
}

func loadScope(cmd *cobra.Command) (*scope, error) {
	global, err := cmd.Flags().GetBool("global")
	if err != nil {
		return nil, err
	}

	if global {
		cfg, err := config.LoadGlobalConfig(config.GlobalConfigPath())
		if err != nil {
			return nil, err
		}
		return &scope{
			global: true,
			cfg:    cfg,
			target: installer.Target{
				Dependencies: cfg.Dependencies,
				ModulesDir:   Settings.ModulesDir,
				LockPath:     config.GlobalLockPath(),
			},
		}, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	m, err := config.LoadManifest(wd)
	if err != nil {
		return nil, err
	}
	return &scope{
		dir:      wd,
		manifest: m,
		target: installer.Target{
			Dependencies: m.Dependencies,
			ModulesDir:   filepath.Join(wd, config.ModulesDirName),
			LockPath:     filepath.Join(wd, config.LockFileName),
		},
	}, nil
}

// deps returns the declared dependencies, creating the map if needed.
func (s *scope) deps() map[string]config.DependencySpec {
	if s.global {
		if s.cfg.Dependencies == nil {
			s.cfg.Dependencies = map[string]config.DependencySpec{}
		}
		s.target.Dependencies = s.cfg.Dependencies
		return s.cfg.Dependencies
	}
	if s.manifest.Dependencies == nil {
		s.manifest.Dependencies = map[string]config.DependencySpec{}
	}
	s.target.Dependencies = s.manifest.Dependencies
	return s.manifest.Dependencies
}

// declaredIn names the file that declares dependencies, for messages.
func (s *scope) declaredIn() string {
	if s.global {
		return "global config"
	}
	return config.ManifestFileName
}

func (s *scope) save() error {
	if s.global {
		return config.SaveGlobalConfig(config.GlobalConfigPath(), s.cfg)
	}
	return config.SaveManifest(s.dir, s.manifest)
}

// scopeError reports a problem with the declared dependencies using the
// error kind of the file that declares them.
func (s *scope) scopeError(msg string) error {
	if s.global {
		return &config.ConfigError{Path: config.GlobalConfigPath(), Msg: msg}
	}
	return &config.ManifestError{Path: filepath.Join(s.dir, config.ManifestFileName), Msg: msg}
}

func newGitSource() *source.GitSource {
	return source.NewGitSource(store.New(Settings.CacheDir), logging.GetLogger("source"))
}

func newInstaller(src source.VCS) *installer.Installer {
	return &installer.Installer{
		Source: src,
		Resolver: &resolver.Resolver{
			Source: src,
			Log:    logging.GetLogger("resolver"),
		},
		Log:  logging.GetLogger("installer"),
		Jobs: Settings.Jobs,
	}
}
