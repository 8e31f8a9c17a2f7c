package source

import (
	"context"

	"github.com/nuancepkg/nuance/pkg/config"
)

// VCS is the version-control capability the resolver and installer depend on.
// GitSource implements it against a local cache of remote repositories.
//
//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks
type VCS interface {
	// CloneOrFetch mirrors url into the cache and returns the cache path. The
	// first call clones; later calls fetch from origin without touching any
	// previously exported output.
	CloneOrFetch(ctx context.Context, url string) (string, error)
	// ResolveRef turns ref into a full, lowercase commit id that exists in
	// the cache entry.
	ResolveRef(cachePath string, ref config.Ref) (string, error)
	// ExportTo replaces dest with the tree of commit, without VCS metadata.
	ExportTo(cachePath, commit, dest string) error
	// LatestTag returns the lexicographically greatest tag, if any.
	LatestTag(cachePath string) (tag string, ok bool, err error)
	// DefaultBranch returns "main" or "master", whichever origin has first.
	DefaultBranch(cachePath string) (string, error)
}
