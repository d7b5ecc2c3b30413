package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// options holds the parsed command-line flags of run and create.
type options struct {
	password         string
	generatePassword bool
	savePassword     bool
	level            int
	levelSet         bool
	name             string
	dryRun           bool
	verbose          bool
	quiet            bool
	noColor          bool
}

// parseFlags splits args into flags and positional arguments. Value flags
// accept both --flag=value and --flag value. Everything after "--" is
// positional.
func parseFlags(args []string) (options, []string, error) {
	var opts options
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s needs a value", name)
			}
			i++
			return args[i], nil
		}

		switch name {
		case "--password", "-p":
			v, err := takeValue()
			if err != nil {
				return opts, nil, err
			}
			opts.password = v
		case "--level", "-l":
			v, err := takeValue()
			if err != nil {
				return opts, nil, err
			}
			level, err := strconv.Atoi(v)
			if err != nil {
				return opts, nil, fmt.Errorf("invalid --level %q: must be a number from 0 to 9", v)
			}
			opts.level = level
			opts.levelSet = true
		case "--name", "-n":
			v, err := takeValue()
			if err != nil {
				return opts, nil, err
			}
			opts.name = v
		case "--generate-password":
			opts.generatePassword = true
		case "--save-password":
			opts.savePassword = true
		case "--dry-run":
			opts.dryRun = true
		case "--verbose":
			opts.verbose = true
		case "--quiet", "-q":
			opts.quiet = true
		case "--no-color":
			opts.noColor = true
		default:
			return opts, nil, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	if opts.verbose && opts.quiet {
		return opts, nil, fmt.Errorf("cannot use both --verbose and --quiet")
	}
	if opts.password != "" && opts.generatePassword {
		return opts, nil, fmt.Errorf("cannot use both --password and --generate-password")
	}

	return opts, positional, nil
}
