package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcdonaldj/autoarchiver/internal/adapters/execarchiver"
	"github.com/mcdonaldj/autoarchiver/internal/adapters/osfs"
	"github.com/mcdonaldj/autoarchiver/internal/adapters/zipinspect"
	"github.com/mcdonaldj/autoarchiver/internal/logger"
	"github.com/mcdonaldj/autoarchiver/internal/manifest"
	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// Result describes a successful archiver run.
type Result struct {
	OutputPath   string
	Command      Command
	ExitCode     int
	Warning      bool // archiver exited with a non-fatal warning
	Stdout       string
	Stderr       string
	Entries      int // -1 if the archive could not be inspected
	SHA256       string
	SizeBytes    int64
	PasswordFile string
	ManifestFile string
}

// Service builds and runs archiver commands with injected dependencies.
type Service struct {
	binary        string
	archiver      ports.Archiver
	fs            ports.FileSystem
	inspector     ports.Inspector
	log           ports.Logger
	writeManifest bool
	now           func() time.Time
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithLogger sets the progress logger.
func WithLogger(log ports.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithInspector sets the archive inspector used to count entries after a run.
// A nil inspector disables the check.
func WithInspector(inspector ports.Inspector) Option {
	return func(s *Service) {
		s.inspector = inspector
	}
}

// WithManifest enables writing <archive>.manifest.json after a run.
func WithManifest(enabled bool) Option {
	return func(s *Service) {
		s.writeManifest = enabled
	}
}

// WithClock overrides the time source of manifests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new archive service for the archiver at binary.
func NewService(binary string, archiver ports.Archiver, fs ports.FileSystem, opts ...Option) *Service {
	s := &Service{
		binary:   binary,
		archiver: archiver,
		fs:       fs,
		log:      logger.Noop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefaultService creates an archive service with real production dependencies.
func NewDefaultService(binary string, opts ...Option) *Service {
	opts = append([]Option{WithInspector(zipinspect.New())}, opts...)
	return NewService(binary, execarchiver.New(), osfs.New(), opts...)
}

// Binary returns the archiver path the service runs.
func (s *Service) Binary() string {
	return s.binary
}

// Plan resolves req against the working directory and builds its command
// without running anything.
func (s *Service) Plan(req Request) (Resolved, Command, error) {
	wd, err := s.fs.Getwd()
	if err != nil {
		return Resolved{}, Command{}, fmt.Errorf("resolving working directory: %w", err)
	}

	resolved, err := Resolve(req, wd)
	if err != nil {
		return Resolved{}, Command{}, err
	}

	return resolved, BuildCommand(s.binary, resolved), nil
}

// Create builds the archive described by req and blocks until the archiver
// exits.
//
// Exit code 0 is success and 1 is success with Result.Warning set. Any
// other exit code, or a process that cannot be run, yields an
// [*ArchiverError]. Sidecar files are only written after a successful run.
func (s *Service) Create(ctx context.Context, req Request) (Result, error) {
	s.log.Info("Starting creating archive, please wait")

	resolved, cmd, err := s.Plan(req)
	if err != nil {
		return Result{}, err
	}

	s.log.Info("Files selected: %s", strings.Join(resolved.Files, ", "))
	if len(resolved.Folders) > 0 {
		s.log.Info("Folders: %s", strings.Join(resolved.Folders, ", "))
	}
	s.log.Info("Output archive name: %s at %s", resolved.Name, resolved.OutputPath)
	if resolved.HasPassword() {
		s.log.Info("Got secret password for the archive")
	} else {
		s.log.Info("No password selected")
	}
	s.log.Info("Compression level: %d", resolved.CompressionLevel)
	s.log.Debug("Archiver command: %s", cmd)

	s.log.Info("Creating archive now, please wait")
	run, err := s.archiver.Run(ctx, cmd.Binary, cmd.Args)
	result := Result{
		OutputPath: resolved.OutputPath,
		Command:    cmd,
		ExitCode:   run.ExitCode,
		Stdout:     run.Stdout,
		Stderr:     run.Stderr,
		Entries:    -1,
	}
	if err != nil {
		return result, &ArchiverError{Code: -1, Stderr: run.Stderr, Err: err}
	}

	switch run.ExitCode {
	case ExitOK:
	case ExitWarning:
		result.Warning = true
		s.log.Warn("Archiver finished with warnings: %s", firstLine(run.Stderr, run.Stdout))
	default:
		return result, &ArchiverError{Code: run.ExitCode, Stderr: run.Stderr}
	}

	if err := s.finish(resolved, &result); err != nil {
		return result, err
	}

	s.log.Info("Archive %s has been created at %s", resolved.Name, resolved.OutputPath)
	return result, nil
}

// finish writes the sidecars and fills in the archive's metadata.
func (s *Service) finish(resolved Resolved, result *Result) error {
	if resolved.SavePassword && resolved.HasPassword() {
		path, err := manifest.WritePasswordFile(s.fs, resolved.OutputPath, resolved.Password)
		if err != nil {
			return err
		}
		result.PasswordFile = path
		s.log.Info("Password saved to %s", path)
	}

	info, err := s.fs.Stat(resolved.OutputPath)
	if err != nil {
		return fmt.Errorf("archiver reported success but archive is missing: %w", err)
	}
	result.SizeBytes = info.Size()

	checksum, err := manifest.ComputeSHA256(s.fs, resolved.OutputPath)
	if err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}
	result.SHA256 = checksum

	if s.inspector != nil {
		entries, err := s.inspector.List(resolved.OutputPath)
		if err != nil {
			s.log.Warn("Could not inspect %s: %v", resolved.OutputPath, err)
		} else {
			result.Entries = len(entries)
			s.log.Debug("Archive holds %d entries", result.Entries)
		}
	}

	if s.writeManifest {
		m := &manifest.Manifest{
			Archive:          resolved.OutputPath,
			SHA256:           result.SHA256,
			SizeBytes:        result.SizeBytes,
			CreatedAt:        s.now(),
			FileCount:        len(resolved.Files),
			Files:            resolved.Files,
			Encrypted:        resolved.HasPassword(),
			CompressionLevel: resolved.CompressionLevel,
		}
		path, err := m.Save(s.fs)
		if err != nil {
			return err
		}
		result.ManifestFile = path
		s.log.Info("Manifest written to %s", path)
	}

	return nil
}

func firstLine(texts ...string) string {
	for _, text := range texts {
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return line
			}
		}
	}
	return "no details"
}
