// Package postgres builds invocations of the PostgreSQL client programs used
// to take and manage physical backups: pg_basebackup, pg_receivewal,
// pg_verifybackup and pg_combinebackup.
//
// Flags that depend on the client release are chosen from an ordered table
// of version thresholds, evaluated once when a command is built. An empty
// version selects the oldest behaviour.
//
//	cmd, err := postgres.NewBaseBackup(conn, postgres.BaseBackupConfig{
//	    Destination: "/srv/backup/base/20240101T000000/data",
//	    Version:     "16.2",
//	    Immediate:   true,
//	}, process.WithPath(cfg.Path))
//	if err != nil {
//	    return err
//	}
//	_, err = cmd.Execute(ctx, nil)
//
// Binary discovery follows the search path one directory at a time and, in
// each directory, tries every alternative name in preference order. A
// candidate is accepted only once "--version" runs successfully.
package postgres
