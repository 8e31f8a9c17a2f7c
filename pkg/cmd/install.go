package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/installer"
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install dependencies",
		Long: `Installs every dependency declared in mod.toml into .nu_modules/.

An up-to-date mod.lock is followed exactly; otherwise dependencies are
resolved again and mod.lock is rewritten. With --frozen the lockfile must
exist and installed content must match its checksums.`,
		Args: cobra.NoArgs,
		RunE: runInstall,
	}

	addGlobalFlag(cmd, "install the global dependencies from config.toml")
	cmd.Flags().Bool("frozen", false, "fail instead of resolving when the lockfile is missing or does not match")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Re-resolve dependencies and rewrite the lockfile",
		Long:  "Resolves every dependency again, ignoring the current lockfile, and installs the result.",
		Args:  cobra.NoArgs,
		RunE:  runUpdate,
	}

	addGlobalFlag(cmd, "update the global dependencies")

	return cmd
}

func runInstall(cmd *cobra.Command, args []string) error {
	frozen, err := cmd.Flags().GetBool("frozen")
	if err != nil {
		return err
	}

	sc, err := loadScope(cmd)
	if err != nil {
		return err
	}

	res, err := newInstaller(newGitSource()).Install(cmd.Context(), sc.target, frozen)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	sc, err := loadScope(cmd)
	if err != nil {
		return err
	}

	res, err := newInstaller(newGitSource()).Update(cmd.Context(), sc.target)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func printResult(w io.Writer, res *installer.Result) {
	for _, name := range res.Pruned {
		fmt.Fprintf(w, "Removed unused module %q\n", name)
	}
	if res.Lockfile == nil {
		fmt.Fprintln(w, "No dependencies to install")
		return
	}
	fmt.Fprintf(w, "Installed %d module(s)\n", len(res.Lockfile.Packages))
}
