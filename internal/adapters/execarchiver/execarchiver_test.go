package execarchiver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mcdonaldj/autoarchiver/internal/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeArchiver writes a shell script that records its arguments one per
// line into args.txt, prints to both streams and exits with code.
func fakeArchiver(t *testing.T, code int) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake archiver is a shell script")
	}

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	script := "#!/bin/sh\n" +
		": > '" + argsFile + "'\n" +
		"for a in \"$@\"; do printf '%s\\n' \"$a\" >> '" + argsFile + "'; done\n" +
		"echo 'Everything is Ok'\n" +
		"echo 'WARNING: something odd' >&2\n" +
		"exit " + strconv.Itoa(code) + "\n"

	bin := filepath.Join(dir, "7z")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0755))
	return bin, argsFile
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := New()
		assert.Equal(t, DefaultOutputLimit, a.outputLimit)
		assert.Empty(t, a.dir)
		assert.Nil(t, a.env)
		assert.Equal(t, DefaultWaitDelay, a.waitDelay)
	})

	t.Run("options", func(t *testing.T) {
		a := New(WithDir("/tmp"), WithEnv([]string{"A=B"}), WithOutputLimit(10), WithWaitDelay(time.Second))
		assert.Equal(t, "/tmp", a.dir)
		assert.Equal(t, []string{"A=B"}, a.env)
		assert.Equal(t, 10, a.outputLimit)
		assert.Equal(t, time.Second, a.waitDelay)
	})

	t.Run("non-positive limit ignored", func(t *testing.T) {
		a := New(WithOutputLimit(0))
		assert.Equal(t, DefaultOutputLimit, a.outputLimit)
	})
}

func TestRunPassesArgumentsVerbatim(t *testing.T) {
	bin, argsFile := fakeArchiver(t, 0)

	args := []string{
		"a", "-tzip", "-ssw", "-mx9",
		`-pse"cr et'$(rm -rf /)`,
		"--",
		"/tmp/out.zip",
		"file with spaces.txt",
		"quote\"d.txt",
		"-dash.txt",
	}

	result, err := New().Run(context.Background(), bin, args)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "Everything is Ok")
	assert.Contains(t, result.Stderr, "WARNING: something odd")

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, args, strings.Split(strings.TrimSuffix(string(recorded), "\n"), "\n"))
}

func TestRunReportsExitCode(t *testing.T) {
	for _, code := range []int{1, 2, 7, 255} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			bin, _ := fakeArchiver(t, code)

			result, err := New().Run(context.Background(), bin, []string{"a"})
			require.NoError(t, err, "non-zero exit is reported in the result")
			assert.Equal(t, code, result.ExitCode)
			assert.Contains(t, result.Stderr, "something odd")
		})
	}
}

func TestRunMissingBinary(t *testing.T) {
	result, err := New().Run(context.Background(), filepath.Join(t.TempDir(), "no-such-7z"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting")
	assert.Equal(t, -1, result.ExitCode)
}

func TestRunInterrupted(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake archiver is a shell script")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "7z")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 30\n"), 0755))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := New().Run(ctx, bin, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunInterruptedWithForkedChild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake archiver is a shell script")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "7z")
	// sleep is forked, not exec'd, so it keeps the output pipes open
	// after the shell is killed.
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nsleep 5\necho done\n"), 0755))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(WithWaitDelay(200*time.Millisecond)).Run(ctx, bin, nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestRunWithDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake archiver is a shell script")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "7z")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\npwd\n"), 0755))

	workDir := t.TempDir()
	result, err := New(WithDir(workDir)).Run(context.Background(), bin, nil)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(result.Stdout))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(5)

	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, 4, n, "reports full length so io.Copy keeps going")
	assert.Equal(t, "cdefg", b.String())

	_, _ = b.Write([]byte("0123456789"))
	assert.Equal(t, "56789", b.String())
}

func TestImplementsInterface(t *testing.T) {
	var _ ports.Archiver = (*ExecArchiver)(nil)
}
