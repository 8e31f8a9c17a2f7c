package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/config"
)

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [name]",
		Short: "Remove a dependency",
		Long: `Removes a dependency from mod.toml, deletes its installed module and drops
it from the lockfile. Without a name, prompts for one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRemove,
	}

	addGlobalFlag(cmd, "remove from the global dependencies")

	return cmd
}

func runRemove(cmd *cobra.Command, args []string) error {
	sc, err := loadScope(cmd)
	if err != nil {
		return err
	}

	deps := sc.deps()
	if len(deps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove")
		return nil
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	} else if name, err = promptDependency(config.SortedNames(deps)); err != nil {
		return err
	}

	if _, ok := deps[name]; !ok {
		return sc.scopeError(fmt.Sprintf("dependency %q not found in %s", name, sc.declaredIn()))
	}

	delete(deps, name)
	if err := sc.save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from %s\n", name, sc.declaredIn())

	locked, err := newInstaller(nil).Remove(sc.target, name)
	if err != nil {
		return err
	}
	if locked {
		fmt.Fprintln(cmd.OutOrStdout(), "Updated lockfile")
	}
	return nil
}

// promptDependency uses huh to pick one of names.
func promptDependency(names []string) (string, error) {
	options := make([]huh.Option[string], len(names))
	for i, n := range names {
		options[i] = huh.NewOption(n, n)
	}

	var selected string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a dependency to remove").
				Options(options...).
				Value(&selected),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("selection prompt failed: %w", err)
	}
	return selected, nil
}
