package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/source"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <url|owner/repo>",
		Short: "Add a dependency and install it",
		Long: `Adds a git dependency to mod.toml and installs it.

The source is a git URL or owner/repo shorthand, expanded with the
default_git_provider setting. Without --tag, --rev or --branch the latest
tag is used, falling back to the default branch when there are no tags.`,
		Args: cobra.ExactArgs(1),
		RunE: runAdd,
	}

	addGlobalFlag(cmd, "add to the global dependencies in config.toml")
	cmd.Flags().String("tag", "", "pin to a tag")
	cmd.Flags().String("rev", "", "pin to a commit id")
	cmd.Flags().String("branch", "", "track a branch")
	cmd.MarkFlagsMutuallyExclusive("tag", "rev", "branch")

	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	sc, err := loadScope(cmd)
	if err != nil {
		return err
	}

	input := strings.TrimSpace(args[0])
	var providerBase string
	if !source.IsGitURL(input) {
		if providerBase, err = source.ProviderBaseURL(Settings.DefaultGitProvider); err != nil {
			return &config.ConfigError{Path: config.GlobalConfigPath(), Msg: "default_git_provider", Err: err}
		}
	}
	url, err := source.NormalizeSource(input, providerBase)
	if err != nil {
		return err
	}

	name, err := source.DeriveName(url)
	if err != nil {
		return err
	}

	deps := sc.deps()
	if _, ok := deps[name]; ok {
		return sc.scopeError(fmt.Sprintf("dependency %q already exists in %s", name, sc.declaredIn()))
	}

	ref, err := explicitRef(cmd)
	if err != nil {
		return err
	}

	src := newGitSource()
	if ref == nil {
		if ref, err = detectRef(cmd.Context(), cmd.ErrOrStderr(), src, url); err != nil {
			return err
		}
	}

	spec := config.NewDependencySpec(url, ref)
	if err := spec.Validate(name); err != nil {
		return err
	}

	deps[name] = spec
	if err := sc.save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s %s) to %s\n", name, ref.Kind(), ref, sc.declaredIn())

	res, err := newInstaller(src).Install(cmd.Context(), sc.target, false)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

// explicitRef returns the ref given by --tag, --rev or --branch, or nil.
func explicitRef(cmd *cobra.Command) (config.Ref, error) {
	for _, kind := range []string{"tag", "rev", "branch"} {
		v, err := cmd.Flags().GetString(kind)
		if err != nil {
			return nil, err
		}
		if v == "" {
			continue
		}
		switch kind {
		case "tag":
			return config.Tag(v), nil
		case "rev":
			return config.Rev(v), nil
		default:
			return config.Branch(v), nil
		}
	}
	return nil, nil
}

// detectRef picks the latest tag of url, or its default branch when it has
// no tags.
func detectRef(ctx context.Context, w io.Writer, src source.VCS, url string) (config.Ref, error) {
	fmt.Fprintf(w, "Fetching %s to detect version...\n", url)
	cachePath, err := src.CloneOrFetch(ctx, url)
	if err != nil {
		return nil, err
	}

	tag, ok, err := src.LatestTag(cachePath)
	if err != nil {
		return nil, err
	}
	if ok {
		fmt.Fprintf(w, "  Found latest tag: %s\n", tag)
		return config.Tag(tag), nil
	}

	branch, err := src.DefaultBranch(cachePath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "  No tags found, using branch: %s\n", branch)
	return config.Branch(branch), nil
}
