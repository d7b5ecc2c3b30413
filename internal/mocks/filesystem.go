// Package mocks provides mock implementations for testing.
package mocks

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// MockFileSystem implements ports.FileSystem for testing.
type MockFileSystem struct {
	// Files maps paths to file contents for ReadFile/WriteFile
	Files map[string][]byte
	// Perms records the permission passed to WriteFile per path
	Perms map[string]os.FileMode
	// Stats maps paths to FileInfo for Stat
	Stats map[string]os.FileInfo
	// Errors maps paths to errors (for simulating failures)
	Errors map[string]error
	// WalkEntries contains entries to return during Walk
	WalkEntries []WalkEntry
	// Wd is returned by Getwd
	Wd string
	// Exe is returned by Executable
	Exe string
}

// WalkEntry represents a file or directory entry for Walk testing.
type WalkEntry struct {
	Path string
	Info os.FileInfo
	Err  error
}

// NewMockFileSystem creates a new mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:  make(map[string][]byte),
		Perms:  make(map[string]os.FileMode),
		Stats:  make(map[string]os.FileInfo),
		Errors: make(map[string]error),
		Wd:     string(filepath.Separator) + "work",
		Exe:    filepath.Join(string(filepath.Separator)+"opt", "autoarchiver", "autoarchiver"),
	}
}

// AddFile registers a regular file both for reads and for Walk.
func (m *MockFileSystem) AddFile(path string, content []byte) {
	m.Files[path] = content
	m.WalkEntries = append(m.WalkEntries, WalkEntry{
		Path: path,
		Info: NewFileInfo(filepath.Base(path), int64(len(content)), false),
	})
}

// AddDir registers a directory for Walk.
func (m *MockFileSystem) AddDir(path string) {
	m.WalkEntries = append(m.WalkEntries, WalkEntry{
		Path: path,
		Info: NewFileInfo(filepath.Base(path), 0, true),
	})
}

// Stat returns file info for the named file.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if info, ok := m.Stats[name]; ok {
		return info, nil
	}
	// Check if we have file content (implies file exists)
	if content, ok := m.Files[name]; ok {
		return NewFileInfo(filepath.Base(name), int64(len(content)), false), nil
	}
	return nil, os.ErrNotExist
}

// WriteFile writes data to the named file, creating it if necessary.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err, ok := m.Errors[name]; ok {
		return err
	}
	m.Files[name] = data
	m.Perms[name] = perm
	return nil
}

// ReadFile reads the named file and returns the contents.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if content, ok := m.Files[name]; ok {
		return content, nil
	}
	return nil, os.ErrNotExist
}

// Open opens the named file for reading.
func (m *MockFileSystem) Open(name string) (fs.File, error) {
	if err, ok := m.Errors[name]; ok {
		return nil, err
	}
	if _, ok := m.Files[name]; !ok {
		return nil, os.ErrNotExist
	}
	return &mockFile{name: name, content: m.Files[name]}, nil
}

// Getwd returns Wd.
func (m *MockFileSystem) Getwd() (string, error) {
	if err, ok := m.Errors["getwd"]; ok {
		return "", err
	}
	return m.Wd, nil
}

// Executable returns Exe.
func (m *MockFileSystem) Executable() (string, error) {
	if err, ok := m.Errors["executable"]; ok {
		return "", err
	}
	return m.Exe, nil
}

// Walk calls fn for every entry under root in WalkEntries order.
// Returning filepath.SkipDir for a directory skips the entries below it.
func (m *MockFileSystem) Walk(root string, fn ports.WalkFunc) error {
	if err, ok := m.Errors[root]; ok {
		return fn(root, nil, err)
	}

	var skipped []string
	for _, entry := range m.WalkEntries {
		if !isUnder(entry.Path, root) {
			continue
		}
		if underAny(entry.Path, skipped) {
			continue
		}
		err := fn(entry.Path, entry.Info, entry.Err)
		switch {
		case err == nil:
		case errors.Is(err, filepath.SkipAll):
			return nil
		case errors.Is(err, filepath.SkipDir):
			if entry.Info != nil && entry.Info.IsDir() {
				skipped = append(skipped, entry.Path)
			}
		default:
			return err
		}
	}
	return nil
}

func isUnder(path, root string) bool {
	if root == "." || path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path != dir && isUnder(path, dir) {
			return true
		}
	}
	return false
}

// NewFileInfo returns an os.FileInfo for tests.
func NewFileInfo(name string, size int64, isDir bool) os.FileInfo {
	mode := os.FileMode(0644)
	if isDir {
		mode = os.ModeDir | 0755
	}
	return &mockFileInfo{name: name, size: size, mode: mode, isDir: isDir}
}

// mockFileInfo implements os.FileInfo for testing.
type mockFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	isDir   bool
}

func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// mockFile implements fs.File for testing.
type mockFile struct {
	name    string
	content []byte
	offset  int
}

func (f *mockFile) Stat() (fs.FileInfo, error) {
	return NewFileInfo(filepath.Base(f.name), int64(len(f.content)), false), nil
}

func (f *mockFile) Read(p []byte) (int, error) {
	if f.offset >= len(f.content) {
		return 0, io.EOF
	}
	n := copy(p, f.content[f.offset:])
	f.offset += n
	return n, nil
}

func (f *mockFile) Close() error { return nil }

// Compile-time check that MockFileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*MockFileSystem)(nil)
