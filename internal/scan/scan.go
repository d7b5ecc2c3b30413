// Package scan turns a directory tree into an archive request.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mcdonaldj/autoarchiver/internal/archive"
	"github.com/mcdonaldj/autoarchiver/internal/logger"
	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// DefaultArchiveName is used when the first file has no usable stem.
const DefaultArchiveName = "archive.zip"

// Creator runs archive requests. *archive.Service implements it.
type Creator interface {
	Create(ctx context.Context, req archive.Request) (archive.Result, error)
}

// Options control one directory scan. Start from DefaultOptions; the
// zero CompressionLevel means "store".
type Options struct {
	// Name overrides the derived archive name. Relative names are placed
	// in the scanned directory.
	Name             string
	Exclude          []string
	RespectGitignore bool
	Password         string
	GeneratePassword bool
	PasswordLength   int
	SavePassword     bool
	CompressionLevel int
}

// DefaultOptions returns the options of a plain scan.
func DefaultOptions() Options {
	return Options{
		PasswordLength:   DefaultPasswordLength,
		CompressionLevel: archive.DefaultCompressionLevel,
	}
}

// Scanner lists a directory and hands the files to a Creator.
type Scanner struct {
	fs           ports.FileSystem
	creator      Creator
	archiverPath string
	log          ports.Logger
}

// Option is a functional option for configuring Scanner.
type Option func(*Scanner)

// WithLogger sets the progress logger.
func WithLogger(log ports.Logger) Option {
	return func(s *Scanner) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a scanner. The running executable and the archiver at
// archiverPath are never archived.
func New(fs ports.FileSystem, creator Creator, archiverPath string, opts ...Option) *Scanner {
	s := &Scanner{
		fs:           fs,
		creator:      creator,
		archiverPath: archiverPath,
		log:          logger.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListFiles returns the regular files under dir that are not excluded,
// sorted by their slash-separated path.
func (s *Scanner) ListFiles(dir string, opts Options) ([]string, error) {
	matcher, err := NewMatcher(dir, opts.Exclude, opts.RespectGitignore)
	if err != nil {
		return nil, err
	}
	matcher.ExcludeFile(s.ownPaths(dir)...)

	var files []string
	var total int64
	err = s.fs.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return nil
		}

		if matcher.Match(rel, info.IsDir()) {
			s.log.Debug("Excluded %s", path)
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		files = append(files, path)
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}

	SortFiles(files)
	s.log.Info("Found %d files (%s) in %s", len(files), FormatSize(total), dir)
	return files, nil
}

// ownPaths returns the paths of the running executable and the archiver.
// An archiver given by bare name is looked for at the top of dir.
func (s *Scanner) ownPaths(dir string) []string {
	var paths []string
	if exe, err := s.fs.Executable(); err == nil {
		paths = append(paths, exe)
	} else {
		s.log.Debug("Cannot determine executable: %v", err)
	}
	switch {
	case s.archiverPath == "":
	case strings.ContainsAny(s.archiverPath, `/\`):
		paths = append(paths, s.archiverPath)
	default:
		paths = append(paths, filepath.Join(dir, s.archiverPath))
	}
	return paths
}

// Prepare scans dir and builds the request that archives it.
func (s *Scanner) Prepare(dir string, opts Options) (archive.Request, error) {
	files, err := s.ListFiles(dir, opts)
	if err != nil {
		return archive.Request{}, err
	}
	if len(files) == 0 {
		return archive.Request{}, fmt.Errorf("%w in %s", archive.ErrNoFiles, dir)
	}

	name := opts.Name
	if name == "" {
		name = ArchiveNameFor(files)
	}
	name, _, err = archive.ResolveName(name, dir)
	if err != nil {
		return archive.Request{}, err
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(dir, name)
	}

	files = without(files, name)
	if len(files) == 0 {
		return archive.Request{}, fmt.Errorf("%w in %s", archive.ErrNoFiles, dir)
	}

	password := opts.Password
	save := opts.SavePassword
	if opts.GeneratePassword {
		password, err = GeneratePassword(opts.PasswordLength)
		if err != nil {
			return archive.Request{}, err
		}
		save = true
	}

	return archive.NewRequest(files, name,
		archive.WithPassword(password),
		archive.WithCompressionLevel(opts.CompressionLevel),
		archive.WithSavedPassword(save && password != ""),
	), nil
}

// CreateFromDirectory archives every eligible file under dir.
func (s *Scanner) CreateFromDirectory(ctx context.Context, dir string, opts Options) (archive.Result, error) {
	s.log.Info("Scanning %s", dir)

	req, err := s.Prepare(dir, opts)
	if err != nil {
		return archive.Result{}, err
	}
	return s.creator.Create(ctx, req)
}

// ArchiveNameFor names the archive after the first file: its base name
// without the final extension, plus ".zip".
func ArchiveNameFor(files []string) string {
	if len(files) == 0 {
		return DefaultArchiveName
	}
	base := filepath.Base(files[0])
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		return DefaultArchiveName
	}
	return stem + archive.DefaultExtension
}

// SortFiles orders paths by their slash-separated form.
func SortFiles(files []string) {
	sort.Slice(files, func(i, j int) bool {
		return filepath.ToSlash(files[i]) < filepath.ToSlash(files[j])
	})
}

func without(files []string, path string) []string {
	target := filepath.Clean(path)
	out := make([]string, 0, len(files))
	for _, f := range files {
		if filepath.Clean(f) == target {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FormatSize formats bytes as human-readable
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
