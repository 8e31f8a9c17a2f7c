package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Manifest is the parsed mod.toml of a project or module.
type Manifest struct {
	Package      Package                   `toml:"package"`
	Dependencies map[string]DependencySpec `toml:"dependencies,omitempty"`
}

type Package struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description,omitempty"`
	License     string   `toml:"license,omitempty"`
	Authors     []string `toml:"authors,omitempty"`
	// NuVersion is the minimum Nushell version the module supports.
	NuVersion string `toml:"nu-version,omitempty"`
}

// DependencySpec is a single [dependencies] entry. Exactly one of Tag, Rev
// and Branch must be set; use Ref to obtain it.
type DependencySpec struct {
	Git    string `toml:"git"`
	Tag    string `toml:"tag,omitempty"`
	Rev    string `toml:"rev,omitempty"`
	Branch string `toml:"branch,omitempty"`
}

// NewDependencySpec builds the spec that pins git to ref.
func NewDependencySpec(git string, ref Ref) DependencySpec {
	spec := DependencySpec{Git: git}
	switch r := ref.(type) {
	case Tag:
		spec.Tag = string(r)
	case Rev:
		spec.Rev = string(r)
	case Branch:
		spec.Branch = string(r)
	}
	return spec
}

// ValidateName rejects dependency names that cannot be used as a single
// directory name under the modules directory.
func ValidateName(name string) error {
	switch {
	case name == "":
		return &ManifestError{Msg: "dependency name cannot be empty"}
	case name == "." || name == "..", strings.ContainsAny(name, `/\`):
		return &ManifestError{Msg: fmt.Sprintf("dependency name %q is not a valid directory name", name)}
	}
	return nil
}

// Validate checks that the spec names a source and exactly one ref.
func (d DependencySpec) Validate(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if d.Git == "" {
		return &ManifestError{Msg: fmt.Sprintf("dependency %q: 'git' source is required", name)}
	}
	switch d.refCount() {
	case 0:
		return &ManifestError{Msg: fmt.Sprintf("dependency %q: must specify one of 'tag', 'rev', or 'branch'", name)}
	case 1:
		return nil
	default:
		return &ManifestError{Msg: fmt.Sprintf("dependency %q: specify only one of 'tag', 'rev', or 'branch'", name)}
	}
}

// Ref returns the single ref the spec pins. It fails when zero or several
// refs are set.
func (d DependencySpec) Ref() (Ref, error) {
	if n := d.refCount(); n != 1 {
		return nil, &ManifestError{Msg: fmt.Sprintf("dependency on %s declares %d refs, want exactly one", d.Git, n)}
	}
	switch {
	case d.Tag != "":
		return Tag(d.Tag), nil
	case d.Rev != "":
		return Rev(d.Rev), nil
	default:
		return Branch(d.Branch), nil
	}
}

func (d DependencySpec) refCount() int {
	n := 0
	for _, v := range []string{d.Tag, d.Rev, d.Branch} {
		if v != "" {
			n++
		}
	}
	return n
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, &ManifestError{Msg: "decoding TOML", Err: err}
	}
	if err := checkEmptyRefs(data); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks package metadata and every dependency spec.
func (m *Manifest) Validate() error {
	if m.Package.Name == "" {
		return &ManifestError{Msg: "package name cannot be empty"}
	}
	if m.Package.Version == "" {
		return &ManifestError{Msg: "package version cannot be empty"}
	}
	return ValidateDependencies(m.Dependencies)
}

// checkEmptyRefs rejects ref keys written with an empty value, which decode
// the same as an absent key.
func checkEmptyRefs(data []byte) error {
	var raw struct {
		Dependencies map[string]map[string]any `toml:"dependencies"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return &ManifestError{Msg: "decoding TOML", Err: err}
	}
	for _, name := range SortedNames(raw.Dependencies) {
		for _, key := range []string{"tag", "rev", "branch"} {
			if v, ok := raw.Dependencies[name][key]; ok && v == "" {
				return &ManifestError{Msg: fmt.Sprintf("dependency %q: '%s' cannot be empty", name, key)}
			}
		}
	}
	return nil
}

// ValidateDependencies validates every spec in deps.
func ValidateDependencies(deps map[string]DependencySpec) error {
	for _, name := range SortedNames(deps) {
		if err := deps[name].Validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) Marshal() ([]byte, error) {
	return toml.Marshal(m)
}

// LoadManifest reads mod.toml from dir. A missing file yields a
// *ManifestError that also matches fs.ErrNotExist.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ManifestError{Path: dir, Msg: "no " + ManifestFileName + " found", Err: err}
		}
		return nil, &ManifestError{Path: path, Msg: "reading manifest", Err: err}
	}

	m, err := ParseManifest(data)
	if err != nil {
		var merr *ManifestError
		if errors.As(err, &merr) && merr.Path == "" {
			merr.Path = path
		}
		return nil, err
	}
	return m, nil
}

// SaveManifest writes m to dir/mod.toml.
func SaveManifest(dir string, m *Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
