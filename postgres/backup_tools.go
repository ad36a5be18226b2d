package postgres

import (
	"maps"
	"slices"

	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/validation"
)

// NewVerifyBackup returns a pg_verifybackup command checking the backup in
// dataPath against its manifest. WAL parsing is skipped.
func NewVerifyBackup(command, dataPath string, opts ...process.Option) (*process.Command, error) {
	if err := validation.Required("data_path", dataPath); err != nil {
		return nil, err
	}
	return newClient(command, "pg_verifybackup", []string{"-n", dataPath}, opts)
}

// CombineBackupConfig describes a pg_combinebackup invocation.
type CombineBackupConfig struct {
	// Command is the client path or name. Defaults to "pg_combinebackup".
	Command     string
	Destination string `validate:"required"`
	// TablespaceMapping relocates tablespaces, keyed by old location.
	TablespaceMapping map[string]string
	// Backups lists the full backup followed by its incrementals, oldest
	// first. They may also be passed at call time.
	Backups []string
}

// NewCombineBackup returns a pg_combinebackup command reconstructing a full
// backup from a chain of incremental ones.
func NewCombineBackup(cfg CombineBackupConfig, opts ...process.Option) (*process.Command, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	args := []string{"--output=" + cfg.Destination}
	for _, from := range slices.Sorted(maps.Keys(cfg.TablespaceMapping)) {
		args = append(args, "--tablespace-mapping="+from+"="+cfg.TablespaceMapping[from])
	}
	args = append(args, cfg.Backups...)
	return newClient(cfg.Command, "pg_combinebackup", args, opts)
}
