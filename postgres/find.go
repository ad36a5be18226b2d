package postgres

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/process"
)

// Client program names in preference order.
var (
	BaseBackupNames    = []string{"pg_basebackup"}
	ReceiveWALNames    = []string{"pg_receivewal", "pg_receivexlog"}
	VerifyBackupNames  = []string{"pg_verifybackup"}
	CombineBackupNames = []string{"pg_combinebackup"}
)

// FindCommand returns the first client among alternatives that answers
// "--version" successfully. Each directory of path is searched in order and,
// within a directory, every alternative is tried before moving on. An empty
// path searches the ambient PATH. The returned command keeps the captured
// version output.
func FindCommand(ctx context.Context, alternatives []string, path string, opts ...process.Option) (*process.Command, error) {
	dirs := []string{""}
	if path != "" {
		dirs = filepath.SplitList(path)
	}
	for _, dir := range dirs {
		for _, name := range alternatives {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			all := []process.Option{
				process.WithComponent(name),
				process.WithCheck(true),
				process.WithPath(dir),
			}
			cmd, err := process.New(name, append(all, opts...)...)
			if err != nil {
				continue
			}
			if _, _, err := cmd.GetOutput(ctx, nil, "--version"); err != nil {
				cmd.Logger().Debug("client rejected", logger.Fields(
					logger.FieldCommand, cmd.Path(),
					logger.FieldError, err.Error(),
				))
				continue
			}
			return cmd, nil
		}
	}
	return nil, &process.FailedError{Command: strings.Join(alternatives, "|"), Err: process.ErrNotFound}
}

// VersionInfo describes an installed client. Empty fields are unknown.
type VersionInfo struct {
	FullPath     string
	FullVersion  string
	MajorVersion string
}

// VersionInfoFor locates a client with FindCommand and parses its version.
// Unrecognized output leaves the version fields empty; a client that cannot
// be found or run leaves every field empty.
func VersionInfoFor(ctx context.Context, alternatives []string, path string, opts ...process.Option) VersionInfo {
	cmd, err := FindCommand(ctx, alternatives, path, opts...)
	if err != nil {
		return VersionInfo{}
	}
	out, _ := cmd.Stdout()
	info := parseVersion(out)
	info.FullPath = cmd.Path()
	return info
}

// versionOutput matches "<program> (PostgreSQL) 11.7" and "<program> 13devel".
// Without the (PostgreSQL) token only a development build is accepted.
var versionOutput = regexp.MustCompile(`^\S+\s+(?:\(PostgreSQL\)\s+(([0-9]+)(?:\.([0-9]+))?(?:\.[0-9]+)?(?:[a-z]+[0-9]*)?)|(([0-9]+)devel)\b)`)

func parseVersion(out string) VersionInfo {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	m := versionOutput.FindStringSubmatch(line)
	switch {
	case m == nil:
		return VersionInfo{}
	case m[4] != "":
		return VersionInfo{FullVersion: m[4], MajorVersion: m[5]}
	default:
		return VersionInfo{FullVersion: m[1], MajorVersion: majorVersion(m[2], m[3])}
	}
}

// majorVersion returns the release line: "11" for 11.x, "9.6" for 9.6.x.
func majorVersion(major, minor string) string {
	if len(major) == 1 && minor != "" {
		return major + "." + minor
	}
	return major
}
