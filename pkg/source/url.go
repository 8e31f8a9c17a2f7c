package source

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// providers maps default_git_provider names to their base URLs.
var providers = map[string]string{
	"github":    "https://github.com",
	"gitlab":    "https://gitlab.com",
	"codeberg":  "https://codeberg.org",
	"bitbucket": "https://bitbucket.org",
}

// ProviderBaseURL returns the base URL used to expand owner/repo shorthand.
// A value containing "://" is taken as a custom base URL.
func ProviderBaseURL(provider string) (string, error) {
	p := strings.TrimSpace(provider)
	if strings.Contains(p, "://") {
		return strings.TrimRight(p, "/"), nil
	}
	if base, ok := providers[strings.ToLower(p)]; ok {
		return base, nil
	}
	return "", fmt.Errorf("unknown git provider %q (expected github, gitlab, codeberg, bitbucket or a base URL)", provider)
}

// IsGitURL reports whether s is a full repository URL: a scheme URL, scp-style
// ssh address or an absolute local path.
func IsGitURL(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "git@") || filepath.IsAbs(s)
}

// NormalizeSource turns user input into a repository URL. Full URLs pass
// through unchanged; owner/repo shorthand is joined to providerBase.
func NormalizeSource(input, providerBase string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("dependency source cannot be empty")
	}
	if IsGitURL(trimmed) {
		return trimmed, nil
	}
	if isRepoShorthand(trimmed) {
		if providerBase == "" {
			return "", fmt.Errorf("a default git provider is required for owner/repo shorthand")
		}
		return strings.TrimRight(providerBase, "/") + "/" + trimmed, nil
	}
	return "", fmt.Errorf("invalid dependency source %q; expected a git URL or owner/repo shorthand", input)
}

func isRepoShorthand(s string) bool {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n")
}

// DeriveName returns the default dependency name for a repository URL: the
// final path segment without a trailing slash or ".git" suffix.
func DeriveName(rawURL string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimRight(rawURL, "/"), ".git")
	name := trimmed
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		name = trimmed[i+1:]
	}
	if name == "" {
		return "", fmt.Errorf("cannot derive a module name from %q", rawURL)
	}
	return name, nil
}

// CacheKey returns the slash-separated cache entry key for a repository URL:
// host and repository path for readability, suffixed with a hash of the
// normalized URL so that distinct URLs never share an entry.
func CacheKey(rawURL string) string {
	host, repoPath := parseGitURL(rawURL)
	sum := xxhash.Sum64String(normalizeURL(rawURL))

	segs := []string{sanitizeSegment(strings.ToLower(host))}
	for _, s := range strings.Split(repoPath, "/") {
		if s != "" {
			segs = append(segs, sanitizeSegment(s))
		}
	}
	if len(segs) == 1 {
		segs = append(segs, "repo")
	}
	segs[len(segs)-1] = fmt.Sprintf("%s-%016x", segs[len(segs)-1], sum)
	return path.Join(segs...)
}

// normalizeURL folds spellings of the same remote together: surrounding
// whitespace, a trailing slash, a ".git" suffix and host case.
func normalizeURL(rawURL string) string {
	s := strings.TrimSuffix(strings.TrimRight(strings.TrimSpace(rawURL), "/"), ".git")
	host, _ := parseGitURL(s)
	if host != "" && host != localHost {
		s = strings.Replace(s, host, strings.ToLower(host), 1)
	}
	return s
}

const localHost = "local"

// parseGitURL extracts the host and repository path from a git URL.
// Supports scheme URLs, scp-style shorthand (git@host:owner/repo.git) and
// local paths, which report the host "local".
func parseGitURL(rawURL string) (host, repoPath string) {
	s := strings.TrimSpace(rawURL)

	// scp-style: git@github.com:owner/repo.git
	if idx := strings.Index(s, ":"); idx > 0 && !strings.Contains(s[:idx], "/") && !strings.Contains(s, "://") {
		host = s[:idx]
		if at := strings.Index(host, "@"); at >= 0 {
			host = host[at+1:]
		}
		return host, trimRepoPath(s[idx+1:])
	}

	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Scheme != "file" {
			return u.Hostname(), trimRepoPath(u.Path)
		}
		s = strings.TrimPrefix(s, "file://")
	}
	return localHost, trimRepoPath(filepath.Base(filepath.Clean(s)))
}

func trimRepoPath(p string) string {
	p = strings.Trim(p, "/")
	return strings.TrimSuffix(p, ".git")
}

func sanitizeSegment(s string) string {
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// isCommitHash reports whether s is a full 40-character hex SHA-1 hash.
func isCommitHash(s string) bool {
	return len(s) == 40 && isHexString(s)
}

// isShortCommitHash reports whether s looks like an abbreviated commit hash (7-39 hex chars).
func isShortCommitHash(s string) bool {
	return len(s) >= 7 && len(s) < 40 && isHexString(s)
}

// isHexString reports whether s is non-empty and contains only hexadecimal characters.
func isHexString(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
