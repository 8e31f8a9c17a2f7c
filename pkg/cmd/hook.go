package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/shellhook"
)

func newHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Print the Nushell hook that activates project modules",
		Long: `Prints a Nushell snippet for config.nu. On every directory change it puts
the current project's .nu_modules on NU_LIB_DIRS and drops the previous one.`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipSettings,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), shellhook.Nushell())
			return err
		},
	}
}
