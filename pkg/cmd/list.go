package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/nuancepkg/nuance/pkg/config"
)

type listEntry struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Ref       string `json:"ref,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Direct    bool   `json:"direct"`
	Installed bool   `json:"installed"`
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dependencies",
		Long:  "Lists declared and locked dependencies with the commit each is locked to.",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	addGlobalFlag(cmd, "list the global dependencies")
	cmd.Flags().StringP("output", "o", "text", "output format: text, yaml or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	sc, err := loadScope(cmd)
	if err != nil {
		return err
	}
	lock, err := config.LoadLockfile(sc.target.LockPath)
	if err != nil {
		return err
	}

	return writeList(cmd.OutOrStdout(), listEntries(sc.target.Dependencies, lock, sc.target.ModulesDir), format)
}

// listEntries merges declared dependencies with the lockfile. Locked names
// that are not declared are transitive dependencies.
func listEntries(deps map[string]config.DependencySpec, lock *config.Lockfile, modulesDir string) []listEntry {
	var entries []listEntry
	seen := map[string]bool{}

	for _, name := range config.SortedNames(deps) {
		spec := deps[name]
		e := listEntry{Name: name, Source: spec.Git, Direct: true}
		if ref, err := spec.Ref(); err == nil {
			e.Ref = ref.Kind().String() + " " + ref.String()
		}
		entries = append(entries, e)
		seen[name] = true
	}
	if lock != nil {
		for _, p := range lock.Packages {
			if seen[p.Name] {
				continue
			}
			e := listEntry{Name: p.Name, Source: p.Git}
			if p.Tag != "" {
				e.Ref = "tag " + p.Tag
			}
			entries = append(entries, e)
		}
	}

	for i := range entries {
		e := &entries[i]
		if lock != nil {
			if p, ok := lock.Find(e.Name); ok {
				e.Commit = p.Rev
			}
		}
		_, err := os.Stat(filepath.Join(modulesDir, e.Name))
		e.Installed = err == nil
	}
	return entries
}

func writeList(w io.Writer, entries []listEntry, format string) error {
	if entries == nil {
		entries = []listEntry{}
	}
	switch format {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "text":
		return writeListText(w, entries)
	default:
		return fmt.Errorf("unknown output format %q (expected text, yaml or json)", format)
	}
}

func writeListText(w io.Writer, entries []listEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No dependencies")
		return err
	}

	nameWidth := len("NAME")
	refWidth := len("REF")
	for _, e := range entries {
		nameWidth = max(nameWidth, lipgloss.Width(e.Name))
		refWidth = max(refWidth, lipgloss.Width(e.Ref))
	}
	col := func(s lipgloss.Style, width int) lipgloss.Style { return s.Width(width + 2) }

	var sb strings.Builder
	sb.WriteString(col(headerStyle, nameWidth).Render("NAME"))
	sb.WriteString(col(headerStyle, refWidth).Render("REF"))
	sb.WriteString(col(headerStyle, 12).Render("COMMIT"))
	sb.WriteString(headerStyle.Render("SOURCE"))
	sb.WriteString("\n")

	for _, e := range entries {
		name := col(nameStyle, nameWidth).Render(e.Name)
		if !e.Direct {
			name = col(dimStyle, nameWidth).Render(e.Name)
		}
		commit := "-"
		if e.Commit != "" {
			commit = e.Commit[:min(len(e.Commit), 10)]
		}
		commitStyle := okStyle
		if !e.Installed {
			commitStyle = warnStyle
		}

		sb.WriteString(name)
		sb.WriteString(col(lipgloss.NewStyle(), refWidth).Render(e.Ref))
		sb.WriteString(col(commitStyle, 12).Render(commit))
		sb.WriteString(dimStyle.Render(e.Source))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
