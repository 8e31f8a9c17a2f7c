package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// authFor picks credentials for url. Public https remotes need none, so a
// nil result is normal.
func authFor(rawURL string) transport.AuthMethod {
	switch {
	case strings.HasPrefix(rawURL, "git@"), strings.HasPrefix(rawURL, "ssh://"):
		return sshAuth()
	case strings.HasPrefix(rawURL, "https://"), strings.HasPrefix(rawURL, "http://"):
		return tokenAuth(rawURL)
	default:
		return nil
	}
}

func sshAuth() transport.AuthMethod {
	if os.Getenv("SSH_AUTH_SOCK") != "" {
		if auth, err := ssh.NewSSHAgentAuth("git"); err == nil {
			return auth
		}
	}

	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		keyPath := filepath.Join(xdg.Home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func tokenAuth(rawURL string) transport.AuthMethod {
	host, _ := parseGitURL(rawURL)

	if token := os.Getenv("GITHUB_TOKEN"); token != "" && strings.HasSuffix(host, "github.com") {
		return &http.BasicAuth{Username: "x-access-token", Password: token}
	}
	if token := os.Getenv("GITLAB_TOKEN"); token != "" && strings.HasSuffix(host, "gitlab.com") {
		return &http.BasicAuth{Username: "gitlab-ci-token", Password: token}
	}
	if token := os.Getenv("GIT_TOKEN"); token != "" {
		return &http.BasicAuth{Username: "git", Password: token}
	}
	return nil
}
