// Package resolver turns declared dependencies into a flat, conflict-free set
// of concrete commits, following each dependency's own mod.toml.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/source"
)

// ResolvedDependency is one entry of a resolution: a name pinned to a
// concrete commit of a source.
type ResolvedDependency struct {
	Name   string
	Source string
	// Tag is the tag the commit was reached through, if any. Informational.
	Tag    string
	Commit string
}

type Resolver struct {
	Source source.VCS
	// ScratchDir receives temporary exports used to read transitive
	// manifests. Empty means the system temp directory.
	ScratchDir string
	Log        zerolog.Logger
}

// Resolve walks the dependency graph depth-first, visiting each manifest's
// dependencies in name order. The result is sorted by name.
func (r *Resolver) Resolve(ctx context.Context, deps map[string]config.DependencySpec) ([]ResolvedDependency, error) {
	set := newResolvedSet()
	if err := r.resolveDeps(ctx, deps, set, ""); err != nil {
		return nil, err
	}
	return set.sorted(), nil
}

func (r *Resolver) resolveDeps(ctx context.Context, deps map[string]config.DependencySpec, set *resolvedSet, parent string) error {
	for _, name := range config.SortedNames(deps) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.resolveOne(ctx, name, deps[name], set, parent); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveOne(ctx context.Context, name string, spec config.DependencySpec, set *resolvedSet, parent string) error {
	log := r.Log.With().Str("dependency", name).Logger()
	if parent != "" {
		log = log.With().Str("required_by", parent).Logger()
	}

	ref, err := spec.Ref()
	if err != nil {
		return fmt.Errorf("resolving %q: %w", name, err)
	}

	log.Info().Str("source", spec.Git).Msg("fetching")
	cachePath, err := r.Source.CloneOrFetch(ctx, spec.Git)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", name, err)
	}
	commit, err := r.Source.ResolveRef(cachePath, ref)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", name, err)
	}

	dep := ResolvedDependency{Name: name, Source: spec.Git, Commit: commit}
	if tag, ok := ref.(config.Tag); ok {
		dep.Tag = string(tag)
	}

	inserted, err := set.insertOrCheck(dep)
	if err != nil {
		return err
	}
	if !inserted {
		log.Debug().Str("commit", commit).Msg("already resolved")
		return nil
	}

	transitive, err := r.readManifest(cachePath, dep, log)
	if err != nil {
		return err
	}
	if len(transitive) == 0 {
		return nil
	}

	log.Info().Int("count", len(transitive)).Msg("resolving transitive dependencies")
	return r.resolveDeps(ctx, transitive, set, name)
}

// readManifest exports dep to a scratch directory and returns the
// dependencies its mod.toml declares. A missing manifest means none; an
// invalid one is logged and ignored.
func (r *Resolver) readManifest(cachePath string, dep ResolvedDependency, log zerolog.Logger) (map[string]config.DependencySpec, error) {
	scratch, err := os.MkdirTemp(r.ScratchDir, "nuance-resolve-"+sanitize(dep.Name)+"-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			log.Warn().Err(err).Str("path", scratch).Msg("removing scratch directory")
		}
	}()

	if err := r.Source.ExportTo(cachePath, dep.Commit, scratch); err != nil {
		return nil, fmt.Errorf("resolving %q: %w", dep.Name, err)
	}

	m, err := config.LoadManifest(scratch)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		log.Warn().Err(err).Msg("ignoring invalid manifest")
		return nil, nil
	}
	return m.Dependencies, nil
}

// FromLock reinterprets locked packages as a resolution without touching the
// network or the filesystem.
func FromLock(pkgs []config.LockedPackage) []ResolvedDependency {
	out := make([]ResolvedDependency, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, ResolvedDependency{
			Name:   p.Name,
			Source: p.Git,
			Tag:    p.Tag,
			Commit: p.Rev,
		})
	}
	return out
}

// resolvedSet is the single name-to-resolution map shared by the whole
// traversal.
type resolvedSet struct {
	deps map[string]ResolvedDependency
}

func newResolvedSet() *resolvedSet {
	return &resolvedSet{deps: make(map[string]ResolvedDependency)}
}

// insertOrCheck records dep. If the name is already present it reports
// false when the existing entry agrees and a *ConflictError when it does not.
func (s *resolvedSet) insertOrCheck(dep ResolvedDependency) (bool, error) {
	existing, ok := s.deps[dep.Name]
	if !ok {
		s.deps[dep.Name] = dep
		return true, nil
	}
	if existing.Source != dep.Source || existing.Commit != dep.Commit {
		return false, &ConflictError{
			Name:           dep.Name,
			ExistingSource: existing.Source,
			ExistingCommit: existing.Commit,
			IncomingSource: dep.Source,
			IncomingCommit: dep.Commit,
		}
	}
	return false, nil
}

func (s *resolvedSet) sorted() []ResolvedDependency {
	out := make([]ResolvedDependency, 0, len(s.deps))
	for _, d := range s.deps {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b ResolvedDependency) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
}
