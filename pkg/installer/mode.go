package installer

import (
	"github.com/nuancepkg/nuance/pkg/config"
)

// Mode is how an install obtains its resolution. It is chosen once per
// invocation.
type Mode int

const (
	// ModeFrozen uses the lockfile as-is and never re-resolves.
	ModeFrozen Mode = iota
	// ModeUseLock uses an existing, non-stale lockfile.
	ModeUseLock
	// ModeNeedsResolve runs the resolver.
	ModeNeedsResolve
)

func (m Mode) String() string {
	switch m {
	case ModeFrozen:
		return "frozen"
	case ModeUseLock:
		return "use-lock"
	case ModeNeedsResolve:
		return "resolve"
	default:
		return "unknown"
	}
}

// SelectMode picks the install mode in priority order: frozen, then a usable
// lockfile, then resolution. lock is nil when no lockfile exists; lockPath
// is only used for error messages.
func SelectMode(frozen bool, lock *config.Lockfile, declared map[string]config.DependencySpec, lockPath string) (Mode, error) {
	if frozen {
		if lock == nil {
			return ModeFrozen, &config.LockfileError{Path: lockPath, Msg: "lockfile not found (required with --frozen)"}
		}
		return ModeFrozen, nil
	}
	if lock != nil && !IsStale(declared, lock) {
		return ModeUseLock, nil
	}
	return ModeNeedsResolve, nil
}

// IsStale reports whether the declared dependency names and the locked
// package names differ. Only names are compared: re-pointing an existing
// dependency at another ref does not make the lockfile stale.
func IsStale(declared map[string]config.DependencySpec, lock *config.Lockfile) bool {
	if lock == nil {
		return true
	}
	locked := make(map[string]bool, len(lock.Packages))
	for _, p := range lock.Packages {
		locked[p.Name] = true
	}
	if len(locked) != len(declared) {
		return true
	}
	for name := range declared {
		if !locked[name] {
			return true
		}
	}
	return false
}
