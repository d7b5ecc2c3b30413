package ports

import "context"

// Archiver abstracts running the external archiver process for testability.
// Production code uses the ExecArchiver adapter; tests use MockArchiver.
type Archiver interface {
	// Run starts binary with args, blocks until it exits and returns its
	// exit status and captured output.
	// A non-zero exit code is reported in RunResult, not as an error. The
	// error is reserved for a process that could not be started, could not
	// be waited for, or was interrupted through ctx.
	Run(ctx context.Context, binary string, args []string) (RunResult, error)
}

// RunResult is the termination status of one archiver run.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Inspector reads the table of contents of a produced archive.
// Production code uses the zipinspect adapter; tests use MockInspector.
type Inspector interface {
	// List returns the file entries of the archive in central directory order.
	List(archivePath string) ([]Entry, error)
}

// Entry describes one file stored in an archive.
type Entry struct {
	Name      string
	Size      int64
	CRC32     uint32
	Encrypted bool
}
