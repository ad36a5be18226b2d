// Package config loads the settings of every execkit builder from a YAML
// file, a .env file and the environment.
//
// # Usage
//
//	cfg, err := config.Load("barman")
//	if err != nil {
//	    return err
//	}
//	logger.Init(cfg.Logging)
//	tel, err := cfg.StartTelemetry(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//	cmd, err := rsync.NewPgData(cfg.Rsync, cfg.CommandOptions(tel)...)
//
// Environment variables override file values using underscore-separated
// paths: COMMAND_RETRY_TIMES sets command.retry_times and RSYNC_BWLIMIT sets
// rsync.bwlimit.
package config
