// Package verify checks a produced archive against its manifest.
package verify

import (
	"errors"
	"fmt"

	"github.com/mcdonaldj/autoarchiver/internal/adapters/osfs"
	"github.com/mcdonaldj/autoarchiver/internal/manifest"
	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// ErrMismatch is returned when an archive no longer matches its manifest.
var ErrMismatch = errors.New("archive does not match its manifest")

// Service provides verification with injected dependencies.
type Service struct {
	fs ports.FileSystem
}

// NewService creates a new verify service with the given dependencies.
func NewService(fs ports.FileSystem) *Service {
	return &Service{fs: fs}
}

// NewDefaultService creates a verify service with real production dependencies.
func NewDefaultService() *Service {
	return NewService(osfs.New())
}

// Verify checks the size and checksum of the archive at archivePath against
// <archivePath>.manifest.json and returns the manifest.
func (s *Service) Verify(archivePath string) (*manifest.Manifest, error) {
	m, err := manifest.Load(s.fs, archivePath)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	info, err := s.fs.Stat(archivePath)
	if err != nil {
		return m, err
	}
	if info.Size() != m.SizeBytes {
		return m, fmt.Errorf("%w: size is %d bytes, expected %d", ErrMismatch, info.Size(), m.SizeBytes)
	}

	actual, err := manifest.ComputeSHA256(s.fs, archivePath)
	if err != nil {
		return m, fmt.Errorf("computing checksum: %w", err)
	}
	if actual != m.SHA256 {
		return m, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrMismatch, m.SHA256, actual)
	}

	return m, nil
}
