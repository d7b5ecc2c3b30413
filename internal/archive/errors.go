package archive

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFiles is returned when there is nothing to archive.
	ErrNoFiles = errors.New("no files to archive")

	// ErrInvalidLevel is returned for compression levels outside 0-9.
	ErrInvalidLevel = errors.New("invalid compression level")

	// ErrEmptyName is returned when no archive name is given.
	ErrEmptyName = errors.New("archive name is empty")

	// ErrArchiverFailed matches every [*ArchiverError].
	ErrArchiverFailed = errors.New("archiver failed")
)

// Exit codes documented by 7-Zip.
const (
	ExitOK          = 0
	ExitWarning     = 1
	ExitFatal       = 2
	ExitCommandLine = 7
	ExitMemory      = 8
	ExitUserStopped = 255
)

// ExitDescription returns 7-Zip's meaning of an exit code.
func ExitDescription(code int) string {
	switch code {
	case ExitOK:
		return "no error"
	case ExitWarning:
		return "warning (non-fatal errors)"
	case ExitFatal:
		return "fatal error"
	case ExitCommandLine:
		return "command line error"
	case ExitMemory:
		return "not enough memory"
	case ExitUserStopped:
		return "stopped by user"
	default:
		return "unknown error"
	}
}

// ArchiverError reports an archiver run that did not produce an archive.
//
// Code is the process exit code, or -1 if the process could not be run at
// all; Err holds the cause in that case.
type ArchiverError struct {
	Code   int
	Stderr string
	Err    error
}

// Error implements the [error] interface.
func (e *ArchiverError) Error() string {
	var msg string
	if e.Err != nil {
		msg = "archiver: " + e.Err.Error()
	} else {
		msg = fmt.Sprintf("archiver exited with code %d (%s)", e.Code, ExitDescription(e.Code))
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Is implements the [errors.Is] interface.
func (*ArchiverError) Is(other error) bool {
	if other == ErrArchiverFailed {
		return true
	}
	_, ok := other.(*ArchiverError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ArchiverError) Unwrap() error {
	return e.Err
}
