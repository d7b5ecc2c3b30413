// Package zipinspect reads the central directory of zip archives produced
// by the external archiver.
package zipinspect

import (
	"archive/zip"
	"math"

	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// flagEncrypted is bit 0 of the zip general purpose flags.
const flagEncrypted = 0x1

// ZipInspector implements ports.Inspector using archive/zip.
type ZipInspector struct{}

// New creates a new ZipInspector adapter.
func New() *ZipInspector {
	return &ZipInspector{}
}

// List returns the file entries of the archive. Directory entries are
// skipped. Entry contents are never decompressed, so encrypted archives
// can be listed without their password.
func (z *ZipInspector) List(zipPath string) ([]ports.Entry, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	entries := make([]ports.Entry, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		// Safe conversion: check for overflow before uint64 -> int64
		size := int64(0)
		if f.UncompressedSize64 <= math.MaxInt64 {
			size = int64(f.UncompressedSize64)
		}
		entries = append(entries, ports.Entry{
			Name:      f.Name,
			Size:      size,
			CRC32:     f.CRC32,
			Encrypted: f.Flags&flagEncrypted != 0,
		})
	}

	return entries, nil
}

// Compile-time check that ZipInspector implements ports.Inspector.
var _ ports.Inspector = (*ZipInspector)(nil)
