package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.CompressionLevel != 9 {
		t.Errorf("CompressionLevel = %d, expected %d", cfg.CompressionLevel, 9)
	}
	if cfg.PasswordLength != 16 {
		t.Errorf("PasswordLength = %d, expected %d", cfg.PasswordLength, 16)
	}
	if cfg.Archiver != "" {
		t.Errorf("Archiver = %q, expected empty", cfg.Archiver)
	}

	// Sidecar files must never be swept into a new archive
	expectedExclusions := []string{".git", "*_password.txt", "*.manifest.json"}
	for _, pattern := range expectedExclusions {
		found := false
		for _, exc := range cfg.Exclude {
			if exc == pattern {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected exclusion %q not found in defaults", pattern)
		}
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("default under home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("USERPROFILE", home)
		t.Setenv(EnvConfigPath, "")

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath failed: %v", err)
		}
		expected := filepath.Join(home, ".autoarchiver", "config.yaml")
		if path != expected {
			t.Errorf("ConfigPath = %q, expected %q", path, expected)
		}
	})

	t.Run("env override", func(t *testing.T) {
		custom := filepath.Join(t.TempDir(), "custom.yaml")
		t.Setenv(EnvConfigPath, custom)

		path, err := ConfigPath()
		if err != nil {
			t.Fatalf("ConfigPath failed: %v", err)
		}
		if path != custom {
			t.Errorf("ConfigPath = %q, expected %q", path, custom)
		}
	})
}

func TestLoadMissingConfig(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed for missing config: %v", err)
	}
	if cfg.CompressionLevel != 9 {
		t.Errorf("Expected default compression level, got %d", cfg.CompressionLevel)
	}
}

func TestLoadValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `archiver: /opt/7zip/7zz
compression_level: 5
exclude:
  - "*.log"
respect_gitignore: true
save_password: true
write_manifest: true
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Archiver != "/opt/7zip/7zz" {
		t.Errorf("Archiver = %q", cfg.Archiver)
	}
	if cfg.CompressionLevel != 5 {
		t.Errorf("CompressionLevel = %d, expected 5", cfg.CompressionLevel)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "*.log" {
		t.Errorf("Exclude = %v, expected [*.log]", cfg.Exclude)
	}
	if !cfg.RespectGitignore || !cfg.SavePassword || !cfg.WriteManifest {
		t.Errorf("boolean flags not loaded: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, expected debug", cfg.LogLevel)
	}
	// Unset keys keep their defaults
	if cfg.PasswordLength != 16 {
		t.Errorf("PasswordLength = %d, expected default 16", cfg.PasswordLength)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"malformed yaml", "compression_level: [", "parsing"},
		{"level too high", "compression_level: 12", "compression_level"},
		{"level negative", "compression_level: -1", "compression_level"},
		{"zero password length", "password_length: 0", "password_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFrom(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, _ := DefaultConfig()
	cfg.CompressionLevel = 3
	cfg.SavePassword = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.CompressionLevel != 3 || !loaded.SavePassword {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSaveUsesConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)

	cfg, _ := DefaultConfig()
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written to %s: %v", path, err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/bin/7z", filepath.Join(home, "bin", "7z")},
		{"/usr/bin/7z", "/usr/bin/7z"},
		{"relative/7z", "relative/7z"},
		{"~user/7z", "~user/7z"},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveArchiver(t *testing.T) {
	t.Run("explicit path is used as-is", func(t *testing.T) {
		cfg := &Config{Archiver: "/opt/7zip/7zz"}
		got, err := cfg.ResolveArchiver()
		if err != nil {
			t.Fatalf("ResolveArchiver failed: %v", err)
		}
		if got != "/opt/7zip/7zz" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("bare name looked up in PATH", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("uses a shell script as fake binary")
		}
		dir := t.TempDir()
		bin := filepath.Join(dir, "fake7z")
		if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
			t.Fatal(err)
		}
		t.Setenv("PATH", dir)

		cfg := &Config{Archiver: "fake7z"}
		got, err := cfg.ResolveArchiver()
		if err != nil {
			t.Fatalf("ResolveArchiver failed: %v", err)
		}
		if got != bin {
			t.Errorf("got %q, expected %q", got, bin)
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())

		cfg := &Config{Archiver: "definitely-not-7z"}
		_, err := cfg.ResolveArchiver()
		if !errors.Is(err, ErrArchiverNotFound) {
			t.Errorf("expected ErrArchiverNotFound, got %v", err)
		}
	})

	t.Run("default name when nothing installed", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())

		cfg := &Config{}
		got, err := cfg.ResolveArchiver()
		if err == nil {
			// A 7z next to the test binary is not expected
			t.Skipf("archiver unexpectedly found at %s", got)
		}
		if !errors.Is(err, ErrArchiverNotFound) {
			t.Errorf("expected ErrArchiverNotFound, got %v", err)
		}
		if got != ArchiverName() {
			t.Errorf("got %q, expected %q", got, ArchiverName())
		}
	})
}
