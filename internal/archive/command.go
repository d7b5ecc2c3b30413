package archive

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// maskedPassword replaces the password in display strings.
const maskedPassword = "-p********"

// Command is a resolved archiver invocation as a discrete argument vector.
// It is never passed through a shell.
type Command struct {
	Binary string
	Args   []string
}

// BuildCommand compiles r into the 7-Zip "add" command:
//
//	<binary> a -tzip -ssw -mx<level> [-p<password>] -- <archive> <file>...
//
// The password switch is only present for password-protected archives.
// "--" stops switch parsing so file names starting with "-" stay files.
func BuildCommand(binary string, r Resolved) Command {
	args := make([]string, 0, 7+len(r.Files))
	args = append(args,
		"a",
		"-tzip",
		"-ssw",
		"-mx"+strconv.Itoa(r.CompressionLevel),
	)
	if r.HasPassword() {
		args = append(args, "-p"+r.Password)
	}
	args = append(args, "--", r.OutputPath)
	args = append(args, r.Files...)

	return Command{Binary: binary, Args: args}
}

// Argv returns the binary followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Binary}, c.Args...)
}

// String returns a shell-quoted rendering with the password masked, for
// logs and dry runs.
func (c Command) String() string {
	display := make([]string, 0, len(c.Args)+1)
	display = append(display, shellquote.Join(c.Binary))

	switches := true
	for _, arg := range c.Args {
		switch {
		case switches && arg == "--":
			switches = false
		case switches && strings.HasPrefix(arg, "-p"):
			display = append(display, maskedPassword)
			continue
		}
		display = append(display, shellquote.Join(arg))
	}
	return strings.Join(display, " ")
}
