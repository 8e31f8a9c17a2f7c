package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	revA = "0123456789abcdef0123456789abcdef01234567"
	revB = "89abcdef0123456789abcdef0123456789abcdef"
	sumA = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	sumB = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
)

func samplePackages() []LockedPackage {
	return []LockedPackage{
		{Name: "zeta", Git: "https://github.com/user/zeta", Rev: revB, SHA256: sumB},
		{Name: "alpha", Git: "https://github.com/user/alpha", Tag: "v1.0.0", Rev: revA, SHA256: sumA},
	}
}

func TestLockfileMarshal(t *testing.T) {
	l := NewLockfile(samplePackages())

	data, err := l.Marshal()
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, lockfileHeader), "missing header:\n%s", text)
	assert.Contains(t, text, "version = 1")
	assert.Equal(t, 2, strings.Count(text, "[[package]]"))
	assert.Less(t, strings.Index(text, "alpha"), strings.Index(text, "zeta"), "packages must be sorted by name")
	assert.NotContains(t, text, "sha256:", "checksums carry no algorithm prefix")
}

func TestLockfileMarshalDeterministic(t *testing.T) {
	pkgs := samplePackages()
	reversed := []LockedPackage{pkgs[1], pkgs[0]}

	a, err := NewLockfile(pkgs).Marshal()
	require.NoError(t, err)
	b, err := NewLockfile(reversed).Marshal()
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestLockfileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	orig := NewLockfile(samplePackages())
	require.NoError(t, orig.Save(path))

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, err := LoadLockfile(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, orig.Packages, loaded.Packages)

	require.NoError(t, loaded.Save(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "load then save must be byte-identical")
}

func TestLockfileSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewLockfile(samplePackages()).Save(filepath.Join(dir, LockFileName)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, LockFileName, entries[0].Name())
}

func TestLoadLockfileMissing(t *testing.T) {
	l, err := LoadLockfile(filepath.Join(t.TempDir(), LockFileName))
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestParseLockfileErrors(t *testing.T) {
	tests := map[string]struct {
		input   string
		wantMsg string
	}{
		"malformed": {
			input:   "version = ",
			wantMsg: "decoding TOML",
		},
		"wrong version": {
			input:   "version = 2\n",
			wantMsg: "unsupported lockfile version 2",
		},
		"missing rev": {
			input:   "version = 1\n[[package]]\nname = 'a'\ngit = 'g'\nsha256 = 'x'\n",
			wantMsg: `package "a" has no rev`,
		},
		"missing checksum": {
			input:   "version = 1\n[[package]]\nname = 'a'\ngit = 'g'\nrev = 'r'\n",
			wantMsg: `package "a" has no sha256`,
		},
		"duplicate": {
			input:   "version = 1\n[[package]]\nname = 'a'\ngit = 'g'\nrev = 'r'\nsha256 = 's'\n[[package]]\nname = 'a'\ngit = 'g'\nrev = 'r'\nsha256 = 's'\n",
			wantMsg: `package "a" is listed more than once`,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLockfile([]byte(tc.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLockfile)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLockfileLookup(t *testing.T) {
	l := NewLockfile(samplePackages())

	assert.Equal(t, []string{"alpha", "zeta"}, l.Names())

	p, ok := l.Find("alpha")
	require.True(t, ok)
	assert.Equal(t, revA, p.Rev)

	_, ok = l.Find("missing")
	assert.False(t, ok)

	assert.True(t, l.Remove("zeta"))
	assert.False(t, l.Remove("zeta"))
	assert.Equal(t, []string{"alpha"}, l.Names())
}
