// Package config loads and saves the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "AUTOARCHIVER_CONFIG"

// ErrArchiverNotFound is returned when no archiver binary can be located.
var ErrArchiverNotFound = errors.New("archiver binary not found")

type Config struct {
	// Archiver is the path to the 7-Zip binary. Empty means: next to the
	// running executable, then PATH.
	Archiver         string   `yaml:"archiver"`
	CompressionLevel int      `yaml:"compression_level"`
	Exclude          []string `yaml:"exclude"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
	SavePassword     bool     `yaml:"save_password"`
	WriteManifest    bool     `yaml:"write_manifest"`
	PasswordLength   int      `yaml:"password_length"`
	LogLevel         string   `yaml:"log_level"`
}

func DefaultConfig() (*Config, error) {
	return &Config{
		CompressionLevel: 9,
		Exclude: []string{
			".git",
			".DS_Store",
			"Thumbs.db",
			"*_password.txt",
			"*.manifest.json",
		},
		RespectGitignore: false,
		SavePassword:     false,
		WriteManifest:    false,
		PasswordLength:   16,
		LogLevel:         "info",
	}, nil
}

func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return ExpandPath(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".autoarchiver", "config.yaml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path on top of the defaults.
// A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression_level must be between 0 and 9, got %d", c.CompressionLevel)
	}
	if c.PasswordLength < 1 {
		return fmt.Errorf("password_length must be positive, got %d", c.PasswordLength)
	}
	return nil
}

func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", path, err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ArchiverName is the file name of the 7-Zip binary on this platform.
func ArchiverName() string {
	if runtime.GOOS == "windows" {
		return "7z.exe"
	}
	return "7z"
}

// ResolveArchiver locates the archiver binary.
//
// An explicit Archiver setting wins; a bare name in it is looked up in PATH.
// Otherwise the binary shipped next to the running executable is used, and
// PATH is the last resort. When nothing is found the platform default name
// is returned together with an error wrapping ErrArchiverNotFound.
func (c *Config) ResolveArchiver() (string, error) {
	if c.Archiver != "" {
		path, err := ExpandPath(c.Archiver)
		if err != nil {
			return "", err
		}
		if strings.ContainsAny(path, `/\`) {
			return path, nil
		}
		found, err := exec.LookPath(path)
		if err != nil {
			return path, fmt.Errorf("%w: %s", ErrArchiverNotFound, path)
		}
		return found, nil
	}

	name := ArchiverName()
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	found, err := exec.LookPath(name)
	if err != nil {
		return name, fmt.Errorf("%w: %s (install 7-Zip or set \"archiver\" in the config)", ErrArchiverNotFound, name)
	}
	return found, nil
}
