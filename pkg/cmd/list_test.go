package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuancepkg/nuance/pkg/config"
)

func TestListEntries(t *testing.T) {
	modules := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(modules, "app-utils"), 0o755))

	deps := map[string]config.DependencySpec{
		"app-utils": {Git: "https://example.com/app-utils", Tag: "v1.2.0"},
		"edge":      {Git: "https://example.com/edge", Branch: "develop"},
	}
	lock := config.NewLockfile([]config.LockedPackage{
		{Name: "app-utils", Git: "https://example.com/app-utils", Tag: "v1.2.0", Rev: "aaaa", SHA256: "x"},
		{Name: "strings", Git: "https://example.com/strings", Rev: "bbbb", SHA256: "y"},
	})

	got := listEntries(deps, lock, modules)
	assert.Equal(t, []listEntry{
		{Name: "app-utils", Source: "https://example.com/app-utils", Ref: "tag v1.2.0", Commit: "aaaa", Direct: true, Installed: true},
		{Name: "edge", Source: "https://example.com/edge", Ref: "branch develop", Direct: true},
		{Name: "strings", Source: "https://example.com/strings", Commit: "bbbb"},
	}, got)
}

func TestWriteList(t *testing.T) {
	entries := []listEntry{
		{Name: "lib", Source: "https://example.com/lib", Ref: "tag v1", Commit: "0123456789abcdef", Direct: true, Installed: true},
	}

	tests := map[string]struct {
		format string
		want   []string
	}{
		"json": {format: "json", want: []string{`"name": "lib"`, `"commit": "0123456789abcdef"`, `"installed": true`}},
		"yaml": {format: "yaml", want: []string{"name: lib", "ref: tag v1", "direct: true"}},
		"text": {format: "text", want: []string{"NAME", "lib", "tag v1", "0123456789", "https://example.com/lib"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeList(&buf, entries, tc.format))
			for _, want := range tc.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestWriteListEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeList(&buf, nil, "json"))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, writeList(&buf, nil, "text"))
	assert.Equal(t, "No dependencies\n", buf.String())
}

func TestWriteListUnknownFormat(t *testing.T) {
	err := writeList(&bytes.Buffer{}, nil, "xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}
