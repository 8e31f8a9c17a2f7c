package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nuancepkg/nuance/pkg/checksum"
	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/logging"
	"github.com/nuancepkg/nuance/pkg/resolver"
	"github.com/nuancepkg/nuance/pkg/source"
)

type Installer struct {
	Source   source.VCS
	Resolver *resolver.Resolver
	Log      zerolog.Logger
	// Jobs bounds how many dependencies are fetched, exported and hashed at
	// once. Values below 2 install sequentially.
	Jobs int
}

// Target is one install scope: a project (mod.toml, .nu_modules, mod.lock)
// or the global scope (config.toml, modules_dir, config.lock).
type Target struct {
	Dependencies map[string]config.DependencySpec
	ModulesDir   string
	LockPath     string
}

// Result describes a completed install.
type Result struct {
	Mode     Mode
	Lockfile *config.Lockfile
	// Pruned lists modules removed because the new resolution no longer
	// contains them.
	Pruned []string
}

// Install brings ModulesDir in line with the target's dependencies and
// rewrites the lockfile. The lockfile is written only after every
// dependency has been installed; on failure the previous one is untouched.
func (inst *Installer) Install(ctx context.Context, t Target, frozen bool) (*Result, error) {
	return inst.install(ctx, t, frozen, false)
}

// Update re-resolves every dependency regardless of the current lockfile.
// The old lockfile is replaced only if the update succeeds. With nothing
// declared, the lockfile is deleted along with the modules it listed.
func (inst *Installer) Update(ctx context.Context, t Target) (*Result, error) {
	return inst.install(ctx, t, false, true)
}

func (inst *Installer) install(ctx context.Context, t Target, frozen, forceResolve bool) (*Result, error) {
	if len(t.Dependencies) == 0 {
		inst.Log.Info().Msg("no dependencies declared")
		if forceResolve {
			return inst.discard(t)
		}
		return &Result{Mode: ModeNeedsResolve}, nil
	}

	prev, err := config.LoadLockfile(t.LockPath)
	if err != nil {
		return nil, err
	}

	mode := ModeNeedsResolve
	if !forceResolve {
		mode, err = SelectMode(frozen, prev, t.Dependencies, t.LockPath)
		if err != nil {
			return nil, err
		}
	}
	if mode == ModeFrozen {
		if err := checkFrozen(t, prev); err != nil {
			return nil, err
		}
	}

	var resolved []resolver.ResolvedDependency
	switch mode {
	case ModeFrozen:
		inst.Log.Info().Str("lockfile", t.LockPath).Msg("using locked dependencies (--frozen)")
		resolved = resolver.FromLock(prev.Packages)
	case ModeUseLock:
		inst.Log.Info().Str("lockfile", t.LockPath).Msg("using existing lockfile")
		resolved = resolver.FromLock(prev.Packages)
	case ModeNeedsResolve:
		inst.Log.Info().Msg("resolving dependencies")
		done := logging.LogOperationStart(inst.Log, "resolve")
		resolved, err = inst.Resolver.Resolve(ctx, t.Dependencies)
		done()
		if err != nil {
			return nil, err
		}
	}

	var locked map[string]string
	if mode != ModeNeedsResolve {
		locked = lockedChecksums(prev)
	}

	pkgs, err := inst.installResolved(ctx, resolved, t.ModulesDir, locked, mode == ModeFrozen, t.LockPath)
	if err != nil {
		return nil, err
	}

	lf := config.NewLockfile(pkgs)
	if err := lf.Save(t.LockPath); err != nil {
		return nil, &config.LockfileError{Path: t.LockPath, Msg: "writing lockfile", Err: err}
	}

	pruned := inst.prune(prev, lf, t.ModulesDir)

	inst.Log.Info().Int("count", len(pkgs)).Str("dir", t.ModulesDir).Msg("installed")
	return &Result{Mode: mode, Lockfile: lf, Pruned: pruned}, nil
}

// discard removes the lockfile and every module it installed.
func (inst *Installer) discard(t Target) (*Result, error) {
	prev, err := config.LoadLockfile(t.LockPath)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return &Result{Mode: ModeNeedsResolve}, nil
	}
	if err := os.Remove(t.LockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &config.LockfileError{Path: t.LockPath, Msg: "removing lockfile", Err: err}
	}
	pruned := inst.prune(prev, config.NewLockfile(nil), t.ModulesDir)
	inst.Log.Info().Str("lockfile", t.LockPath).Int("pruned", len(pruned)).Msg("removed lockfile")
	return &Result{Mode: ModeNeedsResolve, Pruned: pruned}, nil
}

// checkFrozen rejects a lockfile that cannot satisfy the declared
// dependencies. Extra locked names are transitive dependencies and allowed.
func checkFrozen(t Target, lock *config.Lockfile) error {
	for _, name := range config.SortedNames(t.Dependencies) {
		if _, ok := lock.Find(name); !ok {
			return &config.LockfileError{
				Path: t.LockPath,
				Msg:  fmt.Sprintf("dependency %q is not locked; run install without --frozen or update", name),
			}
		}
	}
	return nil
}

func lockedChecksums(lock *config.Lockfile) map[string]string {
	sums := make(map[string]string, len(lock.Packages))
	for _, p := range lock.Packages {
		sums[p.Name] = p.SHA256
	}
	return sums
}

// installResolved installs every dependency and returns their lock entries in
// the order of resolved.
func (inst *Installer) installResolved(ctx context.Context, resolved []resolver.ResolvedDependency, modulesDir string, locked map[string]string, strict bool, lockPath string) ([]config.LockedPackage, error) {
	if err := os.MkdirAll(modulesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", modulesDir, err)
	}

	pkgs := make([]config.LockedPackage, len(resolved))

	installAt := func(ctx context.Context, i int) error {
		dep := resolved[i]
		pkg, err := inst.installOne(ctx, dep, modulesDir)
		if err != nil {
			return fmt.Errorf("installing %q: %w", dep.Name, err)
		}
		if want, ok := locked[dep.Name]; ok && want != pkg.SHA256 {
			if strict {
				return &config.LockfileError{
					Path: lockPath,
					Msg:  fmt.Sprintf("checksum mismatch for %q: locked %s, installed %s", dep.Name, want, pkg.SHA256),
				}
			}
			inst.Log.Warn().Str("dependency", dep.Name).Str("locked", want).Str("installed", pkg.SHA256).
				Msg("checksum differs from lockfile; recording the installed checksum")
		}
		pkgs[i] = pkg
		return nil
	}

	if inst.Jobs < 2 {
		for i := range resolved {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := installAt(ctx, i); err != nil {
				return nil, err
			}
		}
		return pkgs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inst.Jobs)
	for i := range resolved {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return installAt(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pkgs, nil
}

func (inst *Installer) installOne(ctx context.Context, dep resolver.ResolvedDependency, modulesDir string) (config.LockedPackage, error) {
	if err := config.ValidateName(dep.Name); err != nil {
		return config.LockedPackage{}, err
	}

	inst.Log.Info().Str("dependency", dep.Name).Str("commit", shortCommit(dep.Commit)).Msg("installing")

	cachePath, err := inst.Source.CloneOrFetch(ctx, dep.Source)
	if err != nil {
		return config.LockedPackage{}, err
	}

	dest := filepath.Join(modulesDir, dep.Name)
	if err := inst.Source.ExportTo(cachePath, dep.Commit, dest); err != nil {
		return config.LockedPackage{}, err
	}

	sum, err := checksum.HashDirectory(dest)
	if err != nil {
		return config.LockedPackage{}, err
	}

	return config.LockedPackage{
		Name:   dep.Name,
		Git:    dep.Source,
		Tag:    dep.Tag,
		Rev:    dep.Commit,
		SHA256: sum,
	}, nil
}

// prune removes module directories that the previous lockfile installed but
// the new one no longer lists. Directories the lockfile never knew about are
// left alone.
func (inst *Installer) prune(prev, next *config.Lockfile, modulesDir string) []string {
	if prev == nil {
		return nil
	}
	var pruned []string
	for _, name := range prev.Names() {
		if _, ok := next.Find(name); ok {
			continue
		}
		if config.ValidateName(name) != nil {
			continue
		}
		dir := filepath.Join(modulesDir, name)
		if err := os.RemoveAll(dir); err != nil {
			inst.Log.Warn().Err(err).Str("path", dir).Msg("removing unused module")
			continue
		}
		inst.Log.Debug().Str("dependency", name).Msg("removed unused module")
		pruned = append(pruned, name)
	}
	return pruned
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
