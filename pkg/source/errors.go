package source

import (
	"errors"
	"fmt"
)

// ErrGit is the sentinel wrapped by every *GitError.
var ErrGit = errors.New("git error")

// GitError reports a clone, fetch, ref-resolution or export failure.
type GitError struct {
	// Op is the failing operation: clone, fetch, resolve, export, tags.
	Op string
	// Repo is the remote URL or cache path the operation ran against.
	Repo string
	Msg  string
	Err  error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git error: %s %s", e.Op, e.Repo)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGit}
	}
	return []error{ErrGit, e.Err}
}
