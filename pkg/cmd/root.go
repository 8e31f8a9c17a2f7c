package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/logging"
)

var (
	flagVerbose  int
	flagQuiet    bool
	flagCacheDir string
	flagJobs     int

	// Settings holds the resolved settings, available to all subcommands
	// after PersistentPreRunE completes.
	Settings *config.Settings
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nuance",
		Short: "Module manager for Nushell",
		Long: `nuance installs Nushell modules from git repositories.

Dependencies are declared in mod.toml, pinned to exact commits and checksums
in mod.lock, and installed into .nu_modules/. With -g the global scope in
config.toml is used instead.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			s, err := config.LoadSettings(config.Overrides{CacheDir: flagCacheDir, Jobs: flagJobs})
			if err != nil {
				return err
			}
			Settings = s
			log.Debug().Str("cache_dir", s.CacheDir).Int("jobs", s.Jobs).Msg("settings loaded")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase verbosity (-v debug, -vv trace)")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only show warnings and errors")
	root.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "git cache directory (env NUANCE_CACHE_DIR)")
	root.PersistentFlags().IntVarP(&flagJobs, "jobs", "j", 0, "number of modules to install in parallel (env NUANCE_JOBS)")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(newInitCmd())
	root.AddCommand(newInstallCmd())
	root.AddCommand(newUpdateCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newHookCmd())

	return root
}

func setupLogging(cmd *cobra.Command) {
	verbosity := flagVerbose
	if flagQuiet {
		verbosity = -1
	}
	logging.SetupLogger(cmd.ErrOrStderr(), verbosity)
}

// skipSettings replaces the root PersistentPreRunE for commands that never
// touch the cache or the global config.
func skipSettings(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	return nil
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func Execute() {
	os.Exit(Main())
}
