// Package manifest writes the files that accompany a produced archive: the
// optional password sidecar and the optional JSON manifest.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// Manifest describes one produced archive. It never contains the password.
type Manifest struct {
	Archive          string    `json:"archive"`
	SHA256           string    `json:"sha256"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
	FileCount        int       `json:"file_count"`
	Files            []string  `json:"files"`
	Encrypted        bool      `json:"encrypted"`
	CompressionLevel int       `json:"compression_level"`
}

func ManifestPath(archivePath string) string {
	return archivePath + ".manifest.json"
}

// PasswordFilePath returns the sidecar path, e.g. "photos.zip_password.txt".
func PasswordFilePath(archivePath string) string {
	return archivePath + "_password.txt"
}

func Load(fsys ports.FileSystem, archivePath string) (*Manifest, error) {
	data, err := fsys.ReadFile(ManifestPath(archivePath))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest next to the archive and returns its path.
func (m *Manifest) Save(fsys ports.FileSystem) (string, error) {
	path := ManifestPath(m.Archive)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}

	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// WritePasswordFile stores password in the sidecar file, readable by the
// owner only, and returns its path.
func WritePasswordFile(fsys ports.FileSystem, archivePath, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("no password to save for %s", archivePath)
	}
	path := PasswordFilePath(archivePath)
	if err := fsys.WriteFile(path, []byte(password), 0600); err != nil {
		return "", fmt.Errorf("writing password file: %w", err)
	}
	return path, nil
}

// ComputeSHA256 calculates SHA256 hash of a file
func ComputeSHA256(fsys ports.FileSystem, filePath string) (string, error) {
	f, err := fsys.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
