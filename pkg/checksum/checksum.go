// Package checksum computes the content fingerprint recorded for every
// installed module in the lockfile.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrChecksum is the sentinel wrapped by every *Error.
var ErrChecksum = errors.New("checksum error")

// Error reports an I/O failure while hashing a directory tree.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("checksum error: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrChecksum, e.Err} }

// HashDirectory returns the lowercase hex SHA-256 digest over every regular
// file under root. Files are visited in byte-wise order of their
// slash-separated relative paths, and each contributes its path followed by
// its raw contents.
func HashDirectory(root string) (string, error) {
	files, err := listFiles(root)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, rel := range files {
		h.Write([]byte(rel))
		if err := copyFile(h, filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// listFiles returns the relative paths of all regular files under root,
// normalized to forward slashes and sorted.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &Error{Path: path, Err: err}
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return &Error{Path: path, Err: err}
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}
