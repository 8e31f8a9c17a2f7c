package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LockfileVersion is the only lockfile format version this build reads and writes.
const LockfileVersion = 1

const lockfileHeader = "# This file is generated automatically. Do not edit.\n"

// Lockfile pins every dependency, direct and transitive, to an exact commit
// and content checksum.
type Lockfile struct {
	Version  int             `toml:"version"`
	Packages []LockedPackage `toml:"package,omitempty"`
}

// LockedPackage is one [[package]] entry.
type LockedPackage struct {
	Name string `toml:"name"`
	Git  string `toml:"git"`
	// Tag is informational; Rev is authoritative.
	Tag    string `toml:"tag,omitempty"`
	Rev    string `toml:"rev"`
	SHA256 string `toml:"sha256"`
}

func NewLockfile(pkgs []LockedPackage) *Lockfile {
	l := &Lockfile{Version: LockfileVersion, Packages: slices.Clone(pkgs)}
	l.sort()
	return l
}

// ParseLockfile decodes and validates lockfile contents.
func ParseLockfile(data []byte) (*Lockfile, error) {
	l := &Lockfile{}
	if err := toml.Unmarshal(data, l); err != nil {
		return nil, &LockfileError{Msg: "decoding TOML", Err: err}
	}
	if l.Version != LockfileVersion {
		return nil, &LockfileError{Msg: fmt.Sprintf("unsupported lockfile version %d (expected %d)", l.Version, LockfileVersion)}
	}

	seen := make(map[string]bool, len(l.Packages))
	for i, p := range l.Packages {
		if err := ValidateName(p.Name); err != nil {
			return nil, &LockfileError{Msg: fmt.Sprintf("package #%d", i+1), Err: err}
		}
		switch {
		case p.Git == "":
			return nil, &LockfileError{Msg: fmt.Sprintf("package %q has no git source", p.Name)}
		case p.Rev == "":
			return nil, &LockfileError{Msg: fmt.Sprintf("package %q has no rev", p.Name)}
		case p.SHA256 == "":
			return nil, &LockfileError{Msg: fmt.Sprintf("package %q has no sha256", p.Name)}
		case seen[p.Name]:
			return nil, &LockfileError{Msg: fmt.Sprintf("package %q is listed more than once", p.Name)}
		}
		seen[p.Name] = true
	}
	return l, nil
}

// Marshal renders the lockfile with its header and packages sorted by name.
// The output is deterministic for a given set of packages.
func (l *Lockfile) Marshal() ([]byte, error) {
	out := &Lockfile{Version: l.Version, Packages: slices.Clone(l.Packages)}
	if out.Version == 0 {
		out.Version = LockfileVersion
	}
	out.sort()

	body, err := toml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling lockfile: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(lockfileHeader)
	buf.WriteString("\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// LoadLockfile reads the lockfile at path. It returns (nil, nil) when the
// file does not exist.
func LoadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &LockfileError{Path: path, Msg: "reading lockfile", Err: err}
	}

	l, err := ParseLockfile(data)
	if err != nil {
		var lerr *LockfileError
		if errors.As(err, &lerr) {
			lerr.Path = path
		}
		return nil, err
	}
	return l, nil
}

// Save writes the lockfile atomically: a temporary file in the same
// directory is renamed over path, so readers never see a partial file.
func (l *Lockfile) Save(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary lockfile: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temporary lockfile: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temporary lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary lockfile: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting lockfile permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Find returns the locked package with the given name.
func (l *Lockfile) Find(name string) (LockedPackage, bool) {
	for _, p := range l.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return LockedPackage{}, false
}

// Remove drops the named package and reports whether it was present.
func (l *Lockfile) Remove(name string) bool {
	n := len(l.Packages)
	l.Packages = slices.DeleteFunc(l.Packages, func(p LockedPackage) bool { return p.Name == name })
	return len(l.Packages) != n
}

// Names returns the sorted package names.
func (l *Lockfile) Names() []string {
	names := make([]string, 0, len(l.Packages))
	for _, p := range l.Packages {
		names = append(names, p.Name)
	}
	slices.Sort(names)
	return names
}

func (l *Lockfile) sort() {
	slices.SortFunc(l.Packages, func(a, b LockedPackage) int { return strings.Compare(a.Name, b.Name) })
}
