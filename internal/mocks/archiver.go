package mocks

import (
	"context"

	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

// MockArchiver implements ports.Archiver for testing.
type MockArchiver struct {
	// RunCalls records calls to Run
	RunCalls []RunCall
	// Result is returned from every Run
	Result ports.RunResult
	// Err is returned from every Run when set
	Err error
	// OnRun is called with each invocation, e.g. to create the archive file
	OnRun func(binary string, args []string)
}

// RunCall records parameters of a Run call.
type RunCall struct {
	Binary string
	Args   []string
}

// NewMockArchiver creates a new mock archiver that always succeeds.
func NewMockArchiver() *MockArchiver {
	return &MockArchiver{}
}

// Run records the invocation and returns the configured result.
func (m *MockArchiver) Run(ctx context.Context, binary string, args []string) (ports.RunResult, error) {
	m.RunCalls = append(m.RunCalls, RunCall{
		Binary: binary,
		Args:   append([]string(nil), args...),
	})
	if m.OnRun != nil {
		m.OnRun(binary, args)
	}
	if m.Err != nil {
		return ports.RunResult{ExitCode: -1}, m.Err
	}
	return m.Result, nil
}

// LastCall returns the most recent Run call, or a zero RunCall.
func (m *MockArchiver) LastCall() RunCall {
	if len(m.RunCalls) == 0 {
		return RunCall{}
	}
	return m.RunCalls[len(m.RunCalls)-1]
}

// Compile-time check that MockArchiver implements ports.Archiver.
var _ ports.Archiver = (*MockArchiver)(nil)

// MockInspector implements ports.Inspector for testing.
type MockInspector struct {
	// Entries maps archive paths to their listings
	Entries map[string][]ports.Entry
	// Errors maps archive paths to errors
	Errors map[string]error
}

// NewMockInspector creates a new mock inspector.
func NewMockInspector() *MockInspector {
	return &MockInspector{
		Entries: make(map[string][]ports.Entry),
		Errors:  make(map[string]error),
	}
}

// List returns the configured entries for zipPath.
func (m *MockInspector) List(zipPath string) ([]ports.Entry, error) {
	if err, ok := m.Errors[zipPath]; ok {
		return nil, err
	}
	return m.Entries[zipPath], nil
}

// Compile-time check that MockInspector implements ports.Inspector.
var _ ports.Inspector = (*MockInspector)(nil)
