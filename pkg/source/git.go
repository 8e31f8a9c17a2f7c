package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/store"
)

const (
	remoteName = "origin"
	// maxTagDepth bounds peeling of tags that point at other tags.
	maxTagDepth = 16
)

// defaultBranchCandidates are probed in order by DefaultBranch.
var defaultBranchCandidates = []string{"main", "master"}

// GitSource mirrors remote repositories as bare clones inside a store and
// exports commit trees out of them.
type GitSource struct {
	store store.Store
	log   zerolog.Logger
}

var _ VCS = &GitSource{}

func NewGitSource(s store.Store, log zerolog.Logger) *GitSource {
	return &GitSource{store: s, log: log}
}

func (g *GitSource) CloneOrFetch(ctx context.Context, rawURL string) (string, error) {
	key := filepath.FromSlash(CacheKey(rawURL))
	cachePath := g.store.Path(key)

	unlock := g.store.Lock(cachePath)
	defer unlock()

	exists, err := g.store.Exists(key)
	if err != nil {
		return "", &GitError{Op: "clone", Repo: rawURL, Msg: "checking cache", Err: err}
	}

	if !exists {
		g.log.Info().Str("url", rawURL).Str("cache", cachePath).Msg("cloning")
		if err := g.clone(ctx, rawURL, key); err != nil {
			return "", err
		}
		return cachePath, nil
	}

	g.log.Debug().Str("url", rawURL).Str("cache", cachePath).Msg("fetching")
	repo, err := openRepo(cachePath)
	if err != nil {
		return "", err
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       authFor(rawURL),
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "", &GitError{Op: "fetch", Repo: rawURL, Err: err}
	}
	return cachePath, nil
}

// clone performs a full bare clone into the cache entry at key. A failed
// clone leaves no entry behind so the next call starts fresh.
func (g *GitSource) clone(ctx context.Context, rawURL, key string) error {
	if err := g.store.EnsureDir(filepath.Dir(key)); err != nil {
		return &GitError{Op: "clone", Repo: rawURL, Err: err}
	}

	_, err := git.PlainCloneContext(ctx, g.store.Path(key), true, &git.CloneOptions{
		URL:        rawURL,
		RemoteName: remoteName,
		Auth:       authFor(rawURL),
		Tags:       git.AllTags,
	})
	if err != nil {
		if rmErr := g.store.Remove(key); rmErr != nil {
			g.log.Warn().Err(rmErr).Str("key", key).Msg("removing partial clone")
		}
		return &GitError{Op: "clone", Repo: rawURL, Err: err}
	}
	return nil
}

func (g *GitSource) ResolveRef(cachePath string, ref config.Ref) (string, error) {
	unlock := g.store.Lock(cachePath)
	defer unlock()

	repo, err := openRepo(cachePath)
	if err != nil {
		return "", err
	}

	var hash plumbing.Hash
	switch r := ref.(type) {
	case config.Tag:
		hash, err = resolveTag(repo, string(r))
	case config.Rev:
		hash, err = resolveRev(repo, string(r))
	case config.Branch:
		hash, err = resolveBranch(repo, string(r))
	default:
		return "", &GitError{Op: "resolve", Repo: cachePath, Msg: fmt.Sprintf("unsupported ref %T", ref)}
	}
	if err != nil {
		return "", &GitError{Op: "resolve", Repo: cachePath, Msg: fmt.Sprintf("%s %q", ref.Kind(), ref.String()), Err: err}
	}

	g.log.Debug().Str("ref", ref.String()).Stringer("kind", ref.Kind()).Str("commit", hash.String()).Msg("resolved ref")
	return hash.String(), nil
}

func resolveTag(repo *git.Repository, name string) (plumbing.Hash, error) {
	ref, err := repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("tag not found: %w", err)
	}
	return peelToCommit(repo, ref.Hash())
}

func resolveBranch(repo *git.Repository, name string) (plumbing.Hash, error) {
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, name), true)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("branch not found on %s: %w", remoteName, err)
	}
	return peelToCommit(repo, ref.Hash())
}

// resolveRev accepts a full commit id or an unambiguous abbreviation of one.
func resolveRev(repo *git.Repository, rev string) (plumbing.Hash, error) {
	rev = strings.ToLower(rev)

	switch {
	case isCommitHash(rev):
		h := plumbing.NewHash(rev)
		if _, err := repo.CommitObject(h); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("commit not found: %w", err)
		}
		return h, nil

	case isShortCommitHash(rev):
		iter, err := repo.CommitObjects()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		defer iter.Close()

		var match plumbing.Hash
		err = iter.ForEach(func(c *object.Commit) error {
			if !strings.HasPrefix(c.Hash.String(), rev) {
				return nil
			}
			if !match.IsZero() && match != c.Hash {
				return fmt.Errorf("abbreviated commit is ambiguous")
			}
			match = c.Hash
			return nil
		})
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if match.IsZero() {
			return plumbing.ZeroHash, fmt.Errorf("commit not found")
		}
		return match, nil

	default:
		return plumbing.ZeroHash, fmt.Errorf("not a commit id (expected 7 to 40 hex characters)")
	}
}

// peelToCommit follows annotated tag objects, including tags of tags, down
// to the commit they name.
func peelToCommit(repo *git.Repository, h plumbing.Hash) (plumbing.Hash, error) {
	for range maxTagDepth {
		tag, err := repo.TagObject(h)
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			break
		}
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if tag.TargetType != plumbing.TagObject && tag.TargetType != plumbing.CommitObject {
			return plumbing.ZeroHash, fmt.Errorf("tag %s points to a %s, not a commit", tag.Name, tag.TargetType)
		}
		h = tag.Target
	}

	c, err := repo.CommitObject(h)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving commit %s: %w", h, err)
	}
	return c.Hash, nil
}

func (g *GitSource) ExportTo(cachePath, commit, dest string) error {
	unlock := g.store.Lock(cachePath)
	defer unlock()

	fail := func(msg string, err error) error {
		return &GitError{Op: "export", Repo: cachePath, Msg: msg, Err: err}
	}

	if !isCommitHash(commit) {
		return fail(fmt.Sprintf("invalid commit id %q", commit), nil)
	}

	repo, err := openRepo(cachePath)
	if err != nil {
		return err
	}
	c, err := repo.CommitObject(plumbing.NewHash(strings.ToLower(commit)))
	if err != nil {
		return fail("commit "+commit, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return fail("reading tree of "+commit, err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return fail("clearing "+dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fail("creating "+dest, err)
	}

	files := tree.Files()
	defer files.Close()

	n := 0
	err = files.ForEach(func(f *object.File) error {
		n++
		return writeTreeFile(dest, f)
	})
	if err != nil {
		return fail("writing "+dest, err)
	}

	g.log.Debug().Str("commit", commit).Str("dest", dest).Int("files", n).Msg("exported tree")
	return nil
}

// writeTreeFile materializes one blob under dest. Symlinks are written as
// regular files holding the link target.
func writeTreeFile(dest string, f *object.File) error {
	rel := filepath.FromSlash(f.Name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("tree entry %q escapes the export directory", f.Name)
	}
	target := filepath.Join(dest, rel)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if f.Mode == filemode.Executable {
		perm = 0o755
	}

	r, err := f.Reader()
	if err != nil {
		return fmt.Errorf("reading blob %s: %w", f.Name, err)
	}
	defer r.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return out.Close()
}

// LatestTag sorts tag names as plain strings, so "v10.0.0" sorts before
// "v2.0.0".
func (g *GitSource) LatestTag(cachePath string) (string, bool, error) {
	unlock := g.store.Lock(cachePath)
	defer unlock()

	repo, err := openRepo(cachePath)
	if err != nil {
		return "", false, err
	}

	iter, err := repo.Tags()
	if err != nil {
		return "", false, &GitError{Op: "tags", Repo: cachePath, Err: err}
	}
	defer iter.Close()

	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return "", false, &GitError{Op: "tags", Repo: cachePath, Err: err}
	}
	if len(tags) == 0 {
		return "", false, nil
	}

	sort.Strings(tags)
	return tags[len(tags)-1], true, nil
}

func (g *GitSource) DefaultBranch(cachePath string) (string, error) {
	unlock := g.store.Lock(cachePath)
	defer unlock()

	repo, err := openRepo(cachePath)
	if err != nil {
		return "", err
	}

	for _, branch := range defaultBranchCandidates {
		if _, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true); err == nil {
			return branch, nil
		}
	}
	return "", &GitError{
		Op:   "resolve",
		Repo: cachePath,
		Msg:  fmt.Sprintf("could not determine default branch (none of %s exists on %s)", strings.Join(defaultBranchCandidates, ", "), remoteName),
	}
}

func openRepo(cachePath string) (*git.Repository, error) {
	repo, err := git.PlainOpen(cachePath)
	if err != nil {
		return nil, &GitError{Op: "open", Repo: cachePath, Err: err}
	}
	return repo, nil
}
