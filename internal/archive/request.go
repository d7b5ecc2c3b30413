package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultCompressionLevel is used when the caller does not set one.
	DefaultCompressionLevel = 9
	// MinCompressionLevel stores without compression.
	MinCompressionLevel = 0
	// MaxCompressionLevel is ultra compression.
	MaxCompressionLevel = 9
	// DefaultExtension is appended to archive names without an extension.
	DefaultExtension = ".zip"
)

// FileSet is an ordered list of input paths. Duplicates are kept.
type FileSet []string

// Request describes a desired archive.
type Request struct {
	Files            FileSet
	Name             string
	Password         string // empty means no password
	CompressionLevel int
	SavePassword     bool // write the password to a sidecar file on success
}

// RequestOption is a functional option for configuring a Request.
type RequestOption func(*Request)

// WithPassword protects the archive with password.
func WithPassword(password string) RequestOption {
	return func(r *Request) {
		r.Password = password
	}
}

// WithCompressionLevel sets the 7-Zip -mx level.
func WithCompressionLevel(level int) RequestOption {
	return func(r *Request) {
		r.CompressionLevel = level
	}
}

// WithSavedPassword requests a sidecar password file next to the archive.
func WithSavedPassword(save bool) RequestOption {
	return func(r *Request) {
		r.SavePassword = save
	}
}

// NewRequest creates a request for files with the default compression level.
func NewRequest(files []string, name string, opts ...RequestOption) Request {
	r := Request{
		Files:            append(FileSet(nil), files...),
		Name:             name,
		CompressionLevel: DefaultCompressionLevel,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Resolved is a normalized Request, ready to be turned into a Command.
type Resolved struct {
	Files            FileSet
	Folders          []string
	Name             string // archive name as given, with extension
	OutputPath       string // absolute archive path
	Password         string
	CompressionLevel int
	SavePassword     bool
}

// HasPassword reports whether the archive will be encrypted.
func (r Resolved) HasPassword() bool {
	return r.Password != ""
}

// Resolve validates req and normalizes it against workDir.
func Resolve(req Request, workDir string) (Resolved, error) {
	if len(req.Files) == 0 {
		return Resolved{}, ErrNoFiles
	}
	if req.CompressionLevel < MinCompressionLevel || req.CompressionLevel > MaxCompressionLevel {
		return Resolved{}, fmt.Errorf("%w: %d (want %d-%d)",
			ErrInvalidLevel, req.CompressionLevel, MinCompressionLevel, MaxCompressionLevel)
	}

	name, outputPath, err := ResolveName(req.Name, workDir)
	if err != nil {
		return Resolved{}, err
	}

	files := NormalizeFiles(req.Files)
	return Resolved{
		Files:            files,
		Folders:          Folders(files),
		Name:             name,
		OutputPath:       outputPath,
		Password:         req.Password,
		CompressionLevel: req.CompressionLevel,
		SavePassword:     req.SavePassword,
	}, nil
}

// NormalizePath converts both / and \ to the host separator and cleans the
// result, so doubled separators collapse.
func NormalizePath(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(filepath.FromSlash(strings.ReplaceAll(path, `\`, "/")))
}

// NormalizeFiles normalizes every path, keeping order and duplicates.
func NormalizeFiles(files FileSet) FileSet {
	out := make(FileSet, 0, len(files))
	for _, f := range files {
		out = append(out, NormalizePath(f))
	}
	return out
}

// Folders returns the distinct containing folders of files in first-seen
// order. Files in the current directory contribute nothing.
func Folders(files FileSet) []string {
	seen := make(map[string]bool)
	var folders []string
	for _, f := range files {
		dir := filepath.Dir(f)
		if dir == "." || seen[dir] {
			continue
		}
		seen[dir] = true
		folders = append(folders, dir)
	}
	return folders
}

// ResolveName appends DefaultExtension when the base name has none and
// resolves the result against workDir.
func ResolveName(name, workDir string) (string, string, error) {
	if strings.TrimSpace(name) == "" {
		return "", "", ErrEmptyName
	}

	name = NormalizePath(name)
	if ext := filepath.Ext(name); ext == "" || ext == "." {
		name = strings.TrimSuffix(name, ".") + DefaultExtension
	}

	outputPath := name
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(workDir, outputPath)
	}
	return name, outputPath, nil
}
