package postgres

import (
	"context"

	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/process"
)

// Checker reports whether a client program is installed and answers
// "--version".
type Checker struct {
	Name         string
	Alternatives []string
	Path         string
	Options      []process.Option
}

// CheckHealth implements observability.HealthChecker.
func (c Checker) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: c.Name}
	info := VersionInfoFor(ctx, c.Alternatives, c.Path, c.Options...)
	switch {
	case info.FullPath == "":
		h.Status = observability.HealthStatusDown
		h.Message = "client not found"
	case info.FullVersion == "":
		h.Status = observability.HealthStatusDegraded
		h.Message = "unrecognized version output"
		h.Details = map[string]string{"path": info.FullPath}
	default:
		h.Status = observability.HealthStatusUp
		h.Details = map[string]string{
			"path":          info.FullPath,
			"version":       info.FullVersion,
			"major_version": info.MajorVersion,
		}
	}
	return h
}

// Checkers returns a checker for every client program this package builds.
func Checkers(path string, opts ...process.Option) []observability.HealthChecker {
	return []observability.HealthChecker{
		Checker{Name: "pg_basebackup", Alternatives: BaseBackupNames, Path: path, Options: opts},
		Checker{Name: "pg_receivewal", Alternatives: ReceiveWALNames, Path: path, Options: opts},
		Checker{Name: "pg_verifybackup", Alternatives: VerifyBackupNames, Path: path, Options: opts},
		Checker{Name: "pg_combinebackup", Alternatives: CombineBackupNames, Path: path, Options: opts},
	}
}
