package config

import (
	"errors"
	"strings"
)

var (
	// ErrManifest is the sentinel wrapped by every *ManifestError.
	ErrManifest = errors.New("manifest error")
	// ErrLockfile is the sentinel wrapped by every *LockfileError.
	ErrLockfile = errors.New("lockfile error")
	// ErrConfig is the sentinel wrapped by every *ConfigError.
	ErrConfig = errors.New("config error")
)

// ManifestError reports a malformed or invalid manifest.
type ManifestError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ManifestError) Error() string { return format("manifest error", e.Path, e.Msg, e.Err) }

func (e *ManifestError) Unwrap() []error { return unwrap(ErrManifest, e.Err) }

// LockfileError reports a missing, malformed or unusable lockfile.
type LockfileError struct {
	Path string
	Msg  string
	Err  error
}

func (e *LockfileError) Error() string { return format("lockfile error", e.Path, e.Msg, e.Err) }

func (e *LockfileError) Unwrap() []error { return unwrap(ErrLockfile, e.Err) }

// ConfigError reports a problem with the global configuration or settings.
type ConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string { return format("config error", e.Path, e.Msg, e.Err) }

func (e *ConfigError) Unwrap() []error { return unwrap(ErrConfig, e.Err) }

func format(kind, path, msg string, err error) string {
	var sb strings.Builder
	sb.WriteString(kind)
	sb.WriteString(": ")
	if path != "" {
		sb.WriteString(path)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)
	if err != nil {
		sb.WriteString(": ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func unwrap(sentinel, err error) []error {
	if err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, err}
}
