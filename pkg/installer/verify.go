package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nuancepkg/nuance/pkg/checksum"
	"github.com/nuancepkg/nuance/pkg/config"
)

// Status is the verification outcome for one installed module.
type Status int

const (
	StatusOK Status = iota
	StatusModified
	StatusMissing
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusModified:
		return "modified"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

type VerifyEntry struct {
	Name     string `json:"name"`
	Status   Status `json:"-"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
}

type VerifyReport struct {
	Entries []VerifyEntry
}

// OK reports whether every locked module is present and unmodified.
func (r *VerifyReport) OK() bool {
	for _, e := range r.Entries {
		if e.Status != StatusOK {
			return false
		}
	}
	return true
}

// Verify recomputes the checksum of every locked module under ModulesDir and
// compares it with the lockfile. It never touches the network.
func (inst *Installer) Verify(t Target) (*VerifyReport, error) {
	lock, err := config.LoadLockfile(t.LockPath)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return nil, &config.LockfileError{Path: t.LockPath, Msg: "lockfile not found; run install first"}
	}

	report := &VerifyReport{}
	for _, p := range lock.Packages {
		entry := VerifyEntry{Name: p.Name, Expected: p.SHA256}
		dir := filepath.Join(t.ModulesDir, p.Name)

		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			entry.Status = StatusMissing
			report.Entries = append(report.Entries, entry)
			continue
		}

		sum, err := checksum.HashDirectory(dir)
		if err != nil {
			return nil, err
		}
		entry.Actual = sum
		if sum != p.SHA256 {
			entry.Status = StatusModified
			inst.Log.Warn().Str("dependency", p.Name).Str("locked", p.SHA256).Str("actual", sum).Msg("checksum mismatch")
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

// Remove deletes an installed module and its lockfile entry. It reports
// whether the module was locked. The manifest is the caller's to edit.
func (inst *Installer) Remove(t Target, name string) (bool, error) {
	if err := config.ValidateName(name); err != nil {
		return false, err
	}

	dir := filepath.Join(t.ModulesDir, name)
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("removing %s: %w", dir, err)
	}

	lock, err := config.LoadLockfile(t.LockPath)
	if err != nil || lock == nil {
		return false, err
	}
	if !lock.Remove(name) {
		return false, nil
	}
	if err := lock.Save(t.LockPath); err != nil {
		return true, &config.LockfileError{Path: t.LockPath, Msg: "writing lockfile", Err: err}
	}
	inst.Log.Info().Str("dependency", name).Msg("removed")
	return true, nil
}
