package main

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/hrygo/rundown"

// TestInternalImportsVisible checks every import of an internal package
// comes from inside the tree rooted at that internal directory's parent.
func TestInternalImportsVisible(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)

	fset := token.NewFileSet()
	checked := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		importer := modulePath
		if rel != "." {
			importer += "/" + filepath.ToSlash(rel)
		}

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			imported, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(imported, modulePath) {
				continue
			}
			checked++
			assert.True(t, internalVisible(importer, imported), "%s imports %s", importer, imported)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Positive(t, checked)
}

func TestInternalVisible(t *testing.T) {
	tests := []struct {
		importer string
		imported string
		want     bool
	}{
		{modulePath + "/plugin/ai/agent", modulePath + "/internal/errors", true},
		{modulePath + "/server/router/api/v1", modulePath + "/internal/observability", true},
		{modulePath + "/plugin/ai/agent", modulePath + "/server/internal/errors", false},
		{modulePath + "/server/service/calendar", modulePath + "/server/internal/errors", true},
		{modulePath + "/server", modulePath + "/server/internal/errors", true},
		{modulePath + "/plugin/ai/agent", modulePath + "/plugin/ai/session", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, internalVisible(tt.importer, tt.imported), "%s -> %s", tt.importer, tt.imported)
	}
}

// internalVisible reports whether importer may import imported under the
// internal directory rule.
func internalVisible(importer, imported string) bool {
	i := strings.LastIndex(imported, "/internal/")
	if i < 0 {
		if !strings.HasSuffix(imported, "/internal") {
			return true
		}
		i = len(imported) - len("/internal")
	}
	parent := imported[:i]
	return importer == parent || strings.HasPrefix(importer, parent+"/")
}
