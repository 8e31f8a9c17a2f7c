package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/project"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new nuance module",
		Long:  "Creates a mod.toml manifest and a mod.nu entry point, and adds .nu_modules/ to .gitignore.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
		// init does not need settings resolution; skip the root PersistentPreRunE.
		PersistentPreRunE: skipSettings,
	}

	cmd.Flags().String("name", "", "module name (defaults to the directory name)")
	cmd.Flags().String("version", project.DefaultVersion, "module version")
	cmd.Flags().String("description", "", "module description")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	var opts project.Options
	if opts.Name, err = cmd.Flags().GetString("name"); err != nil {
		return err
	}
	if opts.Version, err = cmd.Flags().GetString("version"); err != nil {
		return err
	}
	if opts.Description, err = cmd.Flags().GetString("description"); err != nil {
		return err
	}

	created, err := project.Init(wd, opts)
	if err != nil {
		return err
	}
	name := opts.Name
	if name == "" {
		name = project.InferName(wd)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s for %q\n", config.ManifestFileName, name)
	if created.EntryPoint {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.EntryPointFileName)
	}

	added, err := project.EnsureGitignore(wd, []string{project.GitignoreEntry})
	if err != nil {
		return err
	}
	for _, entry := range added {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to .gitignore\n", entry)
	}

	return nil
}
