// Package rsync builds rsync invocations for copying backup data, locally
// or over SSH.
package rsync

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/shellquote"
	"github.com/kbukum/execkit/validation"
)

// Component is the name rsync invocations log under.
const Component = "rsync"

// pgDataArgs preserve links, permissions and times and update files in place.
var pgDataArgs = []string{"-rLKpts", "--delete-excluded", "--inplace"}

// Config describes an rsync invocation.
type Config struct {
	// Command is the rsync executable. Defaults to "rsync".
	Command string `yaml:"command" mapstructure:"command"`
	// SSH is the remote shell; rendered with SSHOptions as a single -e value.
	SSH        string   `yaml:"ssh" mapstructure:"ssh"`
	SSHOptions []string `yaml:"ssh_options" mapstructure:"ssh_options"`
	// NetworkCompression adds -z.
	NetworkCompression bool     `yaml:"network_compression" mapstructure:"network_compression"`
	Include            []string `yaml:"include" mapstructure:"include"`
	Exclude            []string `yaml:"exclude" mapstructure:"exclude"`
	// ExcludeAndProtect patterns are excluded and protected from deletion.
	ExcludeAndProtect []string `yaml:"exclude_and_protect" mapstructure:"exclude_and_protect"`
	Args              []string `yaml:"args" mapstructure:"args"`
	// BwLimit is the bandwidth limit in KiB/s; 0 means unlimited.
	BwLimit int `yaml:"bwlimit" mapstructure:"bwlimit" validate:"gte=0"`
}

// Rsync is an rsync command. Exit code 24 (source files vanished) is
// accepted alongside 0.
type Rsync struct {
	*process.Command
}

// New returns an rsync command for cfg. Options are applied after the
// rsync defaults, so callers can override the logger, lookup or retry policy.
func New(cfg Config, opts ...process.Option) (*Rsync, error) {
	return newRsync(cfg, nil, opts)
}

// NewPgData returns an rsync command suited to copying a PostgreSQL data
// directory.
func NewPgData(cfg Config, opts ...process.Option) (*Rsync, error) {
	return newRsync(cfg, pgDataArgs, opts)
}

func newRsync(cfg Config, prefix []string, opts []process.Option) (*Rsync, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	name := cfg.Command
	if name == "" {
		name = "rsync"
	}

	args := append([]string(nil), prefix...)
	args = append(args, buildArgs(cfg)...)

	all := []process.Option{
		process.WithComponent(Component),
		process.WithCheck(true),
		process.WithAllowedExitCodes(0, 24),
		process.WithArgs(args...),
	}
	cmd, err := process.New(name, append(all, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Rsync{Command: cmd}, nil
}

func buildArgs(cfg Config) []string {
	var args []string
	if cfg.SSH != "" {
		args = append(args, "-e", shellquote.Command(cfg.SSH, cfg.SSHOptions...))
	}
	if cfg.NetworkCompression {
		args = append(args, "-z")
	}
	for _, pattern := range cfg.Include {
		args = append(args, "--include="+pattern)
	}
	for _, pattern := range cfg.Exclude {
		args = append(args, "--exclude="+pattern)
	}
	for _, pattern := range cfg.ExcludeAndProtect {
		args = append(args, "--exclude="+pattern, "--filter=P_"+pattern)
	}
	args = append(args, cfg.Args...)
	if cfg.BwLimit > 0 {
		args = append(args, "--bwlimit="+strconv.Itoa(cfg.BwLimit))
	}
	return args
}

// FromFileList copies the listed files from src to dst. The list is passed
// on stdin, one path per line, through --files-from=-. Output is captured
// and available through Stdout and Stderr afterwards.
//
// The whole list is written before any output is read, so it must fit in
// the pipe buffer (64 KiB on Linux) when rsync runs with verbose output;
// larger lists belong in a file passed with --files-from=<path>.
func (r *Rsync) FromFileList(ctx context.Context, files []string, src, dst string, args ...string) (int, error) {
	stdin := []byte(strings.Join(files, "\n") + "\n")
	argv := slices.Concat(args, []string{"--files-from=-", src, dst})
	if _, _, err := r.GetOutput(ctx, stdin, argv...); err != nil {
		return r.ExitCode(), err
	}
	return r.ExitCode(), nil
}
