// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/mcdonaldj/autoarchiver/internal/adapters/osfs"
	"github.com/mcdonaldj/autoarchiver/internal/adapters/zipinspect"
	"github.com/mcdonaldj/autoarchiver/internal/archive"
	"github.com/mcdonaldj/autoarchiver/internal/config"
	"github.com/mcdonaldj/autoarchiver/internal/logger"
	"github.com/mcdonaldj/autoarchiver/internal/manifest"
	"github.com/mcdonaldj/autoarchiver/internal/ports"
	"github.com/mcdonaldj/autoarchiver/internal/scan"
	"github.com/mcdonaldj/autoarchiver/internal/verify"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitNoFiles = 2
)

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() (string, error)
	DefaultConfig() (*config.Config, error)
}

// ArchiveService builds and runs explicit archive requests.
type ArchiveService interface {
	Plan(req archive.Request) (archive.Resolved, archive.Command, error)
	Create(ctx context.Context, req archive.Request) (archive.Result, error)
}

// ScanService archives whole directories.
type ScanService interface {
	Prepare(dir string, opts scan.Options) (archive.Request, error)
	CreateFromDirectory(ctx context.Context, dir string, opts scan.Options) (archive.Result, error)
}

// InspectService lists the contents of an archive.
type InspectService interface {
	List(archivePath string) ([]ports.Entry, error)
}

// VerifyService checks an archive against its manifest.
type VerifyService interface {
	Verify(archivePath string) (*manifest.Manifest, error)
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer       // Standard output
	Err     io.Writer       // Standard error, also receives the progress log
	Version string          // Application version
	Args    []string        // Command arguments (like os.Args)
	Ctx     context.Context // Cancels a running archiver; nil means Background

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc  ConfigService
	ArchiveSvc ArchiveService
	ScanSvc    ScanService
	InspectSvc InspectService
	VerifySvc  VerifyService

	// logColors enables colored level prefixes in the progress log
	logColors bool

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(ctx context.Context, version string) *CLI {
	return &CLI{
		Out:       os.Stdout,
		Err:       os.Stderr,
		Version:   version,
		Args:      os.Args,
		Ctx:       ctx,
		Exit:      os.Exit,
		logColors: logger.ColorsEnabled(os.Stderr),
		green:     color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:    color.New(color.FgYellow).SprintFunc(),
		cyan:      color.New(color.FgCyan).SprintFunc(),
		gray:      color.New(color.FgHiBlack).SprintFunc(),
		red:       color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	exitCode := 0
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(code int) { exitCode = code; _ = exitCode },
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error)          { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error          { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() (string, error)            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() (*config.Config, error) { return config.DefaultConfig() }

// Helper methods to get the service or default
func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) inspectSvc() InspectService {
	if c.InspectSvc != nil {
		return c.InspectSvc
	}
	return zipinspect.New()
}

func (c *CLI) verifySvc() VerifyService {
	if c.VerifySvc != nil {
		return c.VerifySvc
	}
	return verify.NewDefaultService()
}

// archiveServices returns the archive and scan services, building the
// production ones around the resolved archiver binary when not injected.
func (c *CLI) archiveServices(cfg *config.Config, log ports.Logger, dryRun bool) (ArchiveService, ScanService, error) {
	if c.ArchiveSvc != nil && c.ScanSvc != nil {
		return c.ArchiveSvc, c.ScanSvc, nil
	}

	binary, err := cfg.ResolveArchiver()
	if err != nil {
		if !dryRun {
			return nil, nil, err
		}
		log.Warn("%v", err)
	}
	log.Debug("Using archiver %s", binary)

	archiveSvc := c.ArchiveSvc
	if archiveSvc == nil {
		archiveSvc = archive.NewDefaultService(binary,
			archive.WithLogger(log),
			archive.WithManifest(cfg.WriteManifest),
		)
	}
	scanSvc := c.ScanSvc
	if scanSvc == nil {
		scanSvc = scan.New(osfs.New(), archiveSvc, binary, scan.WithLogger(log))
	}
	return archiveSvc, scanSvc, nil
}

func (c *CLI) ctx() context.Context {
	if c.Ctx != nil {
		return c.Ctx
	}
	return context.Background()
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if len(c.Args) < 2 {
		c.RunScan(nil)
		return
	}

	switch cmd := c.Args[1]; cmd {
	case "run":
		c.RunScan(c.Args[2:])
	case "create":
		c.CreateArchive(c.Args[2:])
	case "list":
		c.ListArchive(c.Args[2:])
	case "verify":
		c.VerifyArchive(c.Args[2:])
	case "init":
		c.InitConfig()
	case "config":
		c.ShowConfig()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "autoarchiver v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		if strings.HasPrefix(cmd, "-") {
			c.RunScan(c.Args[1:])
			return
		}
		fmt.Fprintf(c.Err, "Unknown command: %s\n", cmd)
		c.PrintUsage()
		c.Exit(ExitFailure)
	}
}

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, `autoarchiver - Password-protected ZIP archives via 7-Zip

Usage:
  autoarchiver [flags]                     Archive every file in the current directory
  autoarchiver run [dir] [flags]           Archive every file under dir
  autoarchiver create <archive> <file>... [flags]
                                           Archive the given files
  autoarchiver list <archive>              List the entries of a zip archive
  autoarchiver verify <archive>            Check an archive against its manifest
  autoarchiver init                        Create default config file
  autoarchiver config                      Show the effective configuration
  autoarchiver version, -v                 Show version
  autoarchiver help, -h                    Show this help

Flags:
  --password=X          Protect the archive with password X
  --generate-password   Protect the archive with a random password (saved next to it)
  --save-password       Write the password to <archive>_password.txt
  --level=N             Compression level 0-9 (default 9)
  --name=NAME           Archive name for run (default: first file's name)
  --dry-run             Print the archiver command without running it
  --verbose, --quiet    More or less progress output
  --no-color            Disable colored output

Config: ~/.autoarchiver/config.yaml (override with AUTOARCHIVER_CONFIG)`)
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	cfg, err := svc.DefaultConfig()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(ExitFailure)
		return
	}
	if err := svc.Save(cfg); err != nil {
		fmt.Fprintf(c.Err, "Error saving config: %v\n", err)
		c.Exit(ExitFailure)
		return
	}
	path, err := svc.ConfigPath()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(ExitFailure)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", path)
}

// ShowConfig prints the config file location and the effective settings.
func (c *CLI) ShowConfig() {
	svc := c.configSvc()

	cfg, err := svc.Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(ExitFailure)
		return
	}
	path, err := svc.ConfigPath()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(ExitFailure)
		return
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(ExitFailure)
		return
	}

	fmt.Fprintf(c.Out, "%s %s\n\n", c.cyan("Config:"), path)
	fmt.Fprint(c.Out, string(data))
}

// parseArgs parses flags and applies --no-color.
func (c *CLI) parseArgs(args []string) (options, []string, bool) {
	opts, positional, err := parseFlags(args)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(ExitFailure)
		return opts, nil, false
	}
	if opts.noColor {
		color.NoColor = true
	}
	return opts, positional, true
}

// setup loads the config and parses flags shared by run and create.
func (c *CLI) setup(args []string) (*config.Config, options, []string, *logger.Logger, bool) {
	opts, positional, ok := c.parseArgs(args)
	if !ok {
		return nil, opts, nil, nil, false
	}

	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(ExitFailure)
		return nil, opts, nil, nil, false
	}

	level := logger.ParseLevel(cfg.LogLevel)
	switch {
	case opts.verbose:
		level = logger.LevelDebug
	case opts.quiet:
		level = logger.LevelError
	}
	log := logger.New(c.Err, level, c.logColors && !opts.noColor)

	return cfg, opts, positional, log, true
}

// RunScan archives every eligible file of a directory.
func (c *CLI) RunScan(args []string) {
	cfg, opts, positional, log, ok := c.setup(args)
	if !ok {
		return
	}
	if len(positional) > 1 {
		fmt.Fprintln(c.Err, "Usage: autoarchiver run [dir] [flags]")
		c.Exit(ExitFailure)
		return
	}
	dir := "."
	if len(positional) == 1 {
		dir = positional[0]
	}

	scanOpts := scan.Options{
		Name:             opts.name,
		Exclude:          cfg.Exclude,
		RespectGitignore: cfg.RespectGitignore,
		Password:         opts.password,
		GeneratePassword: opts.generatePassword,
		PasswordLength:   cfg.PasswordLength,
		SavePassword:     opts.savePassword || cfg.SavePassword,
		CompressionLevel: cfg.CompressionLevel,
	}
	if opts.levelSet {
		scanOpts.CompressionLevel = opts.level
	}

	archiveSvc, scanSvc, err := c.archiveServices(cfg, log, opts.dryRun)
	if err != nil {
		c.fail(err)
		return
	}

	if opts.dryRun {
		req, err := scanSvc.Prepare(dir, scanOpts)
		if err != nil {
			c.fail(err)
			return
		}
		c.printPlan(archiveSvc, req)
		return
	}

	result, err := scanSvc.CreateFromDirectory(c.ctx(), dir, scanOpts)
	if err != nil {
		c.fail(err)
		return
	}
	c.printResult(result)
}

// CreateArchive archives the files named on the command line.
func (c *CLI) CreateArchive(args []string) {
	cfg, opts, positional, log, ok := c.setup(args)
	if !ok {
		return
	}
	if len(positional) < 2 {
		fmt.Fprintln(c.Err, "Usage: autoarchiver create <archive> <file>... [flags]")
		c.Exit(ExitFailure)
		return
	}
	if opts.name != "" {
		fmt.Fprintln(c.Err, "Error: --name is only valid for run; pass the archive name as the first argument")
		c.Exit(ExitFailure)
		return
	}

	level := cfg.CompressionLevel
	if opts.levelSet {
		level = opts.level
	}
	password := opts.password
	save := opts.savePassword || cfg.SavePassword
	if opts.generatePassword {
		generated, err := scan.GeneratePassword(cfg.PasswordLength)
		if err != nil {
			c.fail(err)
			return
		}
		password = generated
		save = true
	}

	req := archive.NewRequest(positional[1:], positional[0],
		archive.WithPassword(password),
		archive.WithCompressionLevel(level),
		archive.WithSavedPassword(save && password != ""),
	)

	archiveSvc, _, err := c.archiveServices(cfg, log, opts.dryRun)
	if err != nil {
		c.fail(err)
		return
	}

	if opts.dryRun {
		c.printPlan(archiveSvc, req)
		return
	}

	result, err := archiveSvc.Create(c.ctx(), req)
	if err != nil {
		c.fail(err)
		return
	}
	c.printResult(result)
}

// ListArchive prints the entries of a zip archive.
func (c *CLI) ListArchive(args []string) {
	_, positional, ok := c.parseArgs(args)
	if !ok {
		return
	}
	if len(positional) != 1 {
		fmt.Fprintln(c.Err, "Usage: autoarchiver list <archive>")
		c.Exit(ExitFailure)
		return
	}
	path := positional[0]

	entries, err := c.inspectSvc().List(path)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(ExitFailure)
		return
	}

	if len(entries) == 0 {
		fmt.Fprintf(c.Out, "No files in %s\n", path)
		return
	}

	fmt.Fprintf(c.Out, "Contents of %s:\n\n", c.cyan(path))
	fmt.Fprintf(c.Out, "  %10s %8s  %s\n", "SIZE", "CRC32", "NAME")
	fmt.Fprintf(c.Out, "  %10s %8s  %s\n", "----", "-----", "----")

	var total int64
	for _, e := range entries {
		name := e.Name
		if e.Encrypted {
			name += " " + c.gray("(encrypted)")
		}
		fmt.Fprintf(c.Out, "  %10s %08x  %s\n", scan.FormatSize(e.Size), e.CRC32, name)
		total += e.Size
	}

	fmt.Fprintln(c.Out)
	fmt.Fprintf(c.Out, "%d files, %s uncompressed\n", len(entries), scan.FormatSize(total))
}

// VerifyArchive checks an archive against its manifest.
func (c *CLI) VerifyArchive(args []string) {
	_, positional, ok := c.parseArgs(args)
	if !ok {
		return
	}
	if len(positional) != 1 {
		fmt.Fprintln(c.Err, "Usage: autoarchiver verify <archive>")
		c.Exit(ExitFailure)
		return
	}
	path := positional[0]

	m, err := c.verifySvc().Verify(path)
	if err != nil {
		fmt.Fprintf(c.Err, "Verification failed: %v\n", err)
		c.Exit(ExitFailure)
		return
	}

	fmt.Fprintf(c.Out, "%s Checksum verified for %s\n", c.green("*"), path)
	fmt.Fprintf(c.Out, "  %d files, %s, created %s\n",
		m.FileCount, scan.FormatSize(m.SizeBytes), m.CreatedAt.Format("2006-01-02 15:04:05"))
}

// printPlan shows what would run, with the password masked.
func (c *CLI) printPlan(svc ArchiveService, req archive.Request) {
	resolved, cmd, err := svc.Plan(req)
	if err != nil {
		c.fail(err)
		return
	}

	fmt.Fprintf(c.Out, "%s Would create %s from %d files\n", c.cyan("=>"), resolved.OutputPath, len(resolved.Files))
	for _, f := range resolved.Files {
		fmt.Fprintf(c.Out, "  %s %s\n", c.gray("-"), f)
	}
	fmt.Fprintln(c.Out)
	fmt.Fprintln(c.Out, cmd.String())
}

func (c *CLI) printResult(r archive.Result) {
	size := scan.FormatSize(r.SizeBytes)
	if r.Entries >= 0 {
		fmt.Fprintf(c.Out, "%s %s %s %d files\n", c.green("*"), r.OutputPath, c.yellow(size), r.Entries)
	} else {
		fmt.Fprintf(c.Out, "%s %s %s\n", c.green("*"), r.OutputPath, c.yellow(size))
	}
	if r.Warning {
		fmt.Fprintf(c.Out, "  %s archiver reported warnings (exit code %d)\n", c.yellow("!"), r.ExitCode)
	}
	if r.SHA256 != "" {
		fmt.Fprintf(c.Out, "  SHA256:   %s\n", c.gray(r.SHA256))
	}
	if r.PasswordFile != "" {
		fmt.Fprintf(c.Out, "  Password: %s\n", r.PasswordFile)
	}
	if r.ManifestFile != "" {
		fmt.Fprintf(c.Out, "  Manifest: %s\n", r.ManifestFile)
	}
}

// fail prints err and exits with the code matching it.
func (c *CLI) fail(err error) {
	fmt.Fprintf(c.Err, "%s %v\n", c.red("Error:"), err)
	if errors.Is(err, archive.ErrNoFiles) {
		c.Exit(ExitNoFiles)
		return
	}
	c.Exit(ExitFailure)
}
