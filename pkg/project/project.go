package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nuancepkg/nuance/pkg/config"
)

const (
	DefaultVersion = "0.1.0"
	fallbackName   = "my-module"

	entryPointStub = "# Module entry point\n# Export your commands here with: export use <submodule>\n"
)

// GitignoreEntry keeps installed modules out of version control.
var GitignoreEntry = config.ModulesDirName + "/"

type Options struct {
	// Name defaults to the directory name.
	Name        string
	Version     string
	Description string
}

// Created lists which files Init wrote.
type Created struct {
	Manifest   bool
	EntryPoint bool
}

// InferName derives a module name from the given directory path.
func InferName(dir string) string {
	name := filepath.Base(filepath.Clean(dir))
	if config.ValidateName(name) != nil || name == string(filepath.Separator) {
		return fallbackName
	}
	return name
}

// Init creates a mod.toml manifest in dir, and a mod.nu entry point when one
// does not exist yet. Returns an error if the manifest already exists.
func Init(dir string, opts Options) (Created, error) {
	var created Created
	path := filepath.Join(dir, config.ManifestFileName)

	if _, err := os.Stat(path); err == nil {
		return created, &config.ManifestError{Path: path, Msg: config.ManifestFileName + " already exists in this directory"}
	}

	name := opts.Name
	if name == "" {
		name = InferName(dir)
	}
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}

	m := &config.Manifest{
		Package: config.Package{
			Name:        name,
			Version:     version,
			Description: opts.Description,
		},
	}
	if err := config.SaveManifest(dir, m); err != nil {
		return created, err
	}
	created.Manifest = true

	entry := filepath.Join(dir, config.EntryPointFileName)
	if _, err := os.Stat(entry); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(entry, []byte(entryPointStub), 0o644); err != nil {
			return created, fmt.Errorf("writing %s: %w", entry, err)
		}
		created.EntryPoint = true
	}

	return created, nil
}

// EnsureGitignore ensures that each entry appears somewhere in the .gitignore
// file within dir. Only entries not already present are appended. Returns the
// list of entries that were actually added.
func EnsureGitignore(dir string, entries []string) ([]string, error) {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		line = strings.TrimSpace(line)
		present[line] = true
		// "/.nu_modules/" and ".nu_modules" cover ".nu_modules/" too.
		present[strings.TrimPrefix(strings.TrimSuffix(line, "/"), "/")+"/"] = true
	}

	var toAdd []string
	for _, entry := range entries {
		if !present[entry] {
			toAdd = append(toAdd, entry)
		}
	}

	if len(toAdd) == 0 {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// Ensure we start on a new line if file doesn't end with one.
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return nil, err
		}
	}

	for _, entry := range toAdd {
		if _, err := f.WriteString(entry + "\n"); err != nil {
			return nil, err
		}
	}

	return toAdd, nil
}
