package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdonaldj/autoarchiver/internal/adapters/osfs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestMatcherPatterns(t *testing.T) {
	m, err := NewMatcher(t.TempDir(), []string{".git", "*.log", "Thumbs.db"}, false)
	require.NoError(t, err)

	assert.True(t, m.Match(".git", true))
	assert.True(t, m.Match(filepath.Join("sub", "debug.log"), false))
	assert.True(t, m.Match("Thumbs.db", false))
	assert.False(t, m.Match("main.go", false))
	assert.False(t, m.Match(filepath.Join("logs", "app.txt"), false))
}

func TestMatcherExcludeFile(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root, nil, false)
	require.NoError(t, err)
	m.ExcludeFile(filepath.Join(root, "7z"), "")

	assert.True(t, m.Match("7z", false))
	assert.False(t, m.Match(filepath.Join("deep", "7z"), false))
	assert.False(t, m.Match("7z", true), "directories are not excluded by file path")
	assert.False(t, m.Match("other", false))
}

func TestMatcherGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.tmp\nbuild/\n!keep.tmp\n")
	writeFile(t, filepath.Join(root, "sub", ".gitignore"), "secret.txt\n")

	m, err := NewMatcher(root, nil, true)
	require.NoError(t, err)

	assert.True(t, m.Match("scratch.tmp", false))
	assert.True(t, m.Match("build", true))
	assert.False(t, m.Match("keep.tmp", false))
	assert.True(t, m.Match(filepath.Join("sub", "secret.txt"), false))
	assert.False(t, m.Match("secret.txt", false))
	assert.False(t, m.Match("main.go", false))
}

func TestMatcherGitignoreMissingRoot(t *testing.T) {
	_, err := NewMatcher(filepath.Join(t.TempDir(), "missing"), nil, true)
	assert.Error(t, err)
}

func TestListFilesRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.tmp\nbuild/\n")
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "scratch.tmp"), "tmp")
	writeFile(t, filepath.Join(root, "build", "out.bin"), "bin")
	writeFile(t, filepath.Join(root, "src", "main.go"), "package main")

	opts := DefaultOptions()
	opts.Exclude = []string{".gitignore"}
	opts.RespectGitignore = true

	files, err := New(osfs.New(), &fakeCreator{}, "7z").ListFiles(root, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "src", "main.go"),
	}, files)
}
