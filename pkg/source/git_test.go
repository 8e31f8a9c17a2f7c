package source

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nuancepkg/nuance/pkg/config"
	"github.com/nuancepkg/nuance/pkg/store"
)

// requireGit skips the test if git is not available.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// runGit runs git in dir (or the current directory when dir is empty) and
// returns its trimmed stdout.
func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		var stderr string
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr = string(exitErr.Stderr)
		}
		t.Fatalf("git %v: %v\n%s", args, err, stderr)
	}
	return strings.TrimSpace(string(out))
}

func newWorkRepo(t *testing.T, branch string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "work")
	runGit(t, "", "init", "--initial-branch="+branch, dir)
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	runGit(t, dir, "config", "tag.gpgsign", "false")
	return dir
}

func commitFiles(t *testing.T, dir string, files map[string]string, msg string) string {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-m", msg)
	return runGit(t, dir, "rev-parse", "HEAD")
}

func bareClone(t *testing.T, workDir string) string {
	t.Helper()
	bareDir := filepath.Join(t.TempDir(), "repo.git")
	runGit(t, "", "clone", "--bare", workDir, bareDir)
	return bareDir
}

type fixture struct {
	url           string
	workDir       string
	commit        string
	developCommit string
}

// setupBareRepo creates a bare repo whose main branch has one commit with a
// README, an executable script, a nested module file and a symlink. It tags
// that commit with a lightweight tag "v1.0", an annotated tag "v2.0" and a
// tag-of-a-tag "v3.0", and adds a "develop" branch one commit ahead.
func setupBareRepo(t *testing.T) fixture {
	t.Helper()

	work := newWorkRepo(t, "main")
	for name, content := range map[string]string{
		"README.md":     "# test\n",
		"mod.nu":        "export def hello [] { 'hello' }\n",
		"lib/util.nu":   "export def util [] { 1 }\n",
		"bin/run.nu":    "#!/usr/bin/env nu\n",
		"docs/guide.md": "guide\n",
	} {
		path := filepath.Join(work, filepath.FromSlash(name))
		os.MkdirAll(filepath.Dir(path), 0o755)
		os.WriteFile(path, []byte(content), 0o644)
	}
	os.Chmod(filepath.Join(work, "bin", "run.nu"), 0o755)
	if err := os.Symlink("README.md", filepath.Join(work, "link")); err != nil {
		t.Fatalf("creating symlink: %v", err)
	}
	runGit(t, work, "add", "-A")
	runGit(t, work, "commit", "-m", "initial commit")
	commit := runGit(t, work, "rev-parse", "HEAD")

	runGit(t, work, "tag", "v1.0")
	runGit(t, work, "tag", "-a", "v2.0", "-m", "version 2.0")
	runGit(t, work, "tag", "-a", "v3.0", "v2.0", "-m", "tag of a tag")

	runGit(t, work, "checkout", "-b", "develop")
	developCommit := commitFiles(t, work, map[string]string{"CHANGELOG.md": "wip\n"}, "develop work")
	runGit(t, work, "checkout", "main")

	return fixture{
		url:           bareClone(t, work),
		workDir:       work,
		commit:        commit,
		developCommit: developCommit,
	}
}

func newTestSource(t *testing.T) (*GitSource, store.Store) {
	t.Helper()
	s := store.New(t.TempDir())
	return NewGitSource(s, zerolog.Nop()), s
}

func TestCloneOrFetch(t *testing.T) {
	requireGit(t)
	fx := setupBareRepo(t)
	g, s := newTestSource(t)

	first, err := g.CloneOrFetch(context.Background(), fx.url)
	if err != nil {
		t.Fatalf("first CloneOrFetch() error: %v", err)
	}
	if want := s.Path(filepath.FromSlash(CacheKey(fx.url))); first != want {
		t.Errorf("cache path = %q, want %q", first, want)
	}
	if _, err := os.Stat(filepath.Join(first, "HEAD")); err != nil {
		t.Errorf("expected a bare repository at %q: %v", first, err)
	}

	second, err := g.CloneOrFetch(context.Background(), fx.url)
	if err != nil {
		t.Fatalf("second CloneOrFetch() error: %v", err)
	}
	if first != second {
		t.Errorf("cache path changed between calls: %q vs %q", first, second)
	}
}

func TestCloneOrFetchPicksUpNewRefs(t *testing.T) {
	requireGit(t)
	fx := setupBareRepo(t)
	g, _ := newTestSource(t)

	cachePath, err := g.CloneOrFetch(context.Background(), fx.url)
	if err != nil {
		t.Fatalf("CloneOrFetch() error: %v", err)
	}

	runGit(t, fx.url, "tag", "v9.0", fx.commit)

	if _, err := g.CloneOrFetch(context.Background(), fx.url); err != nil {
		t.Fatalf("fetch error: %v", err)
	}

	got, err := g.ResolveRef(cachePath, config.Tag("v9.0"))
	if err != nil {
		t.Fatalf("ResolveRef(v9.0) after fetch error: %v", err)
	}
	if got != fx.commit {
		t.Errorf("ResolveRef(v9.0) = %q, want %q", got, fx.commit)
	}
}

func TestCloneOrFetchMissingRemote(t *testing.T) {
	requireGit(t)
	g, s := newTestSource(t)
	missing := filepath.Join(t.TempDir(), "nope.git")

	_, err := g.CloneOrFetch(context.Background(), missing)
	if !errors.Is(err, ErrGit) {
		t.Fatalf("CloneOrFetch() error = %v, want ErrGit", err)
	}

	exists, _ := s.Exists(filepath.FromSlash(CacheKey(missing)))
	if exists {
		t.Error("failed clone left a cache entry behind")
	}
}

func TestResolveRef(t *testing.T) {
	requireGit(t)
	fx := setupBareRepo(t)
	g, _ := newTestSource(t)

	cachePath, err := g.CloneOrFetch(context.Background(), fx.url)
	if err != nil {
		t.Fatalf("CloneOrFetch() error: %v", err)
	}

	tests := map[string]struct {
		ref  config.Ref
		want string
	}{
		"branch": {
			ref:  config.Branch("main"),
			want: fx.commit,
		},
		"other branch": {
			ref:  config.Branch("develop"),
			want: fx.developCommit,
		},
		"lightweight tag": {
			ref:  config.Tag("v1.0"),
			want: fx.commit,
		},
		"annotated tag": {
			ref:  config.Tag("v2.0"),
			want: fx.commit,
		},
		"tag of a tag": {
			ref:  config.Tag("v3.0"),
			want: fx.commit,
		},
		"commit hash": {
			ref:  config.Rev(fx.commit),
			want: fx.commit,
		},
		"uppercase commit hash": {
			ref:  config.Rev(strings.ToUpper(fx.commit)),
			want: fx.commit,
		},
		"short commit hash": {
			ref:  config.Rev(fx.commit[:12]),
			want: fx.commit,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := g.ResolveRef(cachePath, tc.ref)
			if err != nil {
				t.Fatalf("ResolveRef(%v) error: %v", tc.ref, err)
			}
			if got != tc.want {
				t.Errorf("ResolveRef(%v) = %q, want %q", tc.ref, got, tc.want)
			}
		})
	}
}

func TestResolveRefErrors(t *testing.T) {
	requireGit(t)
	fx := setupBareRepo(t)
	g, _ := newTestSource(t)

	cachePath, err := g.CloneOrFetch(context.Background(), fx.url)
	if err != nil {
		t.Fatalf("CloneOrFetch() error: %v", err)
	}

	tests := map[string]struct {
		ref config.Ref
	}{
		"missing tag":       {ref: config.Tag("v0.0.1")},
		"missing branch":    {ref: config.Branch("nonexistent")},
		"malformed rev":     {ref: config.Rev("not-a-sha")},
		"too short rev":     {ref: config.Rev("abc")},
		"unknown full rev":  {ref: config.Rev("0000000000000000000000000000000000000001")},
		"unknown short rev": {ref: config.Rev("0000000001")},
		"nil ref":           {ref: nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := g.ResolveRef(cachePath, tc.ref)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var gerr *GitError
			if !errors.As(err, &gerr) || gerr.Op != "resolve" {
				t.Errorf("error = %v, want *GitError with op resolve", err)
			}
		})
	}
}

func TestExportTo(t *testing.T) {
	requireGit(t)
	fx := setupBareRepo(t)
	g, _ := newTestSource(t)

	cachePath, err := g.CloneOrFetch(context.Background(), fx.url)
	if err != nil {
		t.Fatalf("CloneOrFetch() error: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "out", "foo")
	os.MkdirAll(dest, 0o755)
	os.WriteFile(filepath.Join(dest, "stale.txt"), []byte("old"), 0o644)

	if err := g.ExportTo(cachePath, fx.commit, dest); err != nil {
		t.Fatalf("ExportTo() error: %v", err)
	}

	for _, name := range []string{"README.md", "mod.nu", "lib/util.nu", "bin/run.nu", "docs/guide.md", "link"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(name))); err != nil {
			t.Errorf("expected %s in export: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "stale.txt")); !os.IsNotExist(err) {
		t.Error("stale.txt survived the export")
	}
	if _, err := os.Stat(filepath.Join(dest, ".git")); !os.IsNotExist(err) {
		t.Error("export contains VCS metadata")
	}
	if _, err := os.Stat(filepath.Join(dest, "CHANGELOG.md")); !os.IsNotExist(err) {
		t.Error("export contains a file from another branch")
	}

	info, err := os.Stat(filepath.Join(dest, "bin", "run.nu"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("bin/run.nu mode = %v, want executable", info.Mode())
	}

	linfo, err := os.Lstat(filepath.Join(dest, "link"))
	if err != nil {
		t.Fatal(err)
	}
	if linfo.Mode()&os.ModeSymlink != 0 {
		t.Error("symlink exported as a symlink, want regular file")
	}
	data, _ := os.ReadFile(filepath.Join(dest, "link"))
	if string(data) != "README.md" {
		t.Errorf("link content = %q, want the link target", data)
	}
}

func TestExportToInvalidCommitKeepsDest(t *testing.T) {
	requireGit(t)
	fx := setupBareRepo(t)
	g, _ := newTestSource(t)

	cachePath, err := g.CloneOrFetch(context.Background(), fx.url)
	if err != nil {
		t.Fatalf("CloneOrFetch() error: %v", err)
	}

	dest := t.TempDir()
	keep := filepath.Join(dest, "keep.txt")
	os.WriteFile(keep, []byte("keep"), 0o644)

	tests := map[string]string{
		"malformed": "HEAD",
		"unknown":   "0000000000000000000000000000000000000001",
	}
	for name, commit := range tests {
		t.Run(name, func(t *testing.T) {
			if err := g.ExportTo(cachePath, commit, dest); !errors.Is(err, ErrGit) {
				t.Fatalf("ExportTo(%q) error = %v, want ErrGit", commit, err)
			}
			if _, err := os.Stat(keep); err != nil {
				t.Errorf("destination was cleared before the commit was validated: %v", err)
			}
		})
	}
}

func TestLatestTag(t *testing.T) {
	requireGit(t)

	t.Run("lexicographic maximum", func(t *testing.T) {
		fx := setupBareRepo(t)
		runGit(t, fx.url, "tag", "v10.0", fx.commit)
		g, _ := newTestSource(t)

		cachePath, err := g.CloneOrFetch(context.Background(), fx.url)
		if err != nil {
			t.Fatalf("CloneOrFetch() error: %v", err)
		}

		got, ok, err := g.LatestTag(cachePath)
		if err != nil {
			t.Fatalf("LatestTag() error: %v", err)
		}
		// Plain string order: "v3.0" > "v10.0".
		if !ok || got != "v3.0" {
			t.Errorf("LatestTag() = (%q, %v), want (\"v3.0\", true)", got, ok)
		}
	})

	t.Run("no tags", func(t *testing.T) {
		work := newWorkRepo(t, "main")
		commitFiles(t, work, map[string]string{"mod.nu": ""}, "init")
		g, _ := newTestSource(t)

		cachePath, err := g.CloneOrFetch(context.Background(), bareClone(t, work))
		if err != nil {
			t.Fatalf("CloneOrFetch() error: %v", err)
		}

		got, ok, err := g.LatestTag(cachePath)
		if err != nil {
			t.Fatalf("LatestTag() error: %v", err)
		}
		if ok || got != "" {
			t.Errorf("LatestTag() = (%q, %v), want none", got, ok)
		}
	})
}

func TestDefaultBranch(t *testing.T) {
	requireGit(t)

	tests := map[string]struct {
		branch  string
		want    string
		wantErr bool
	}{
		"main":          {branch: "main", want: "main"},
		"master":        {branch: "master", want: "master"},
		"neither found": {branch: "trunk", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			work := newWorkRepo(t, tc.branch)
			commitFiles(t, work, map[string]string{"mod.nu": ""}, "init")
			g, _ := newTestSource(t)

			cachePath, err := g.CloneOrFetch(context.Background(), bareClone(t, work))
			if err != nil {
				t.Fatalf("CloneOrFetch() error: %v", err)
			}

			got, err := g.DefaultBranch(cachePath)
			if tc.wantErr {
				if !errors.Is(err, ErrGit) {
					t.Fatalf("DefaultBranch() error = %v, want ErrGit", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DefaultBranch() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("DefaultBranch() = %q, want %q", got, tc.want)
			}
		})
	}
}
