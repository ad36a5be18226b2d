// Package validation checks builder parameters and configuration before any
// process is spawned.
//
// Struct tag validation covers configuration structs loaded by the config
// package:
//
//	type Config struct {
//	    Destination string `mapstructure:"destination" validate:"required"`
//	    BwLimit     int    `mapstructure:"bwlimit" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects errors for rules that depend on more than
// one field:
//
//	err := validation.New().
//	    Range("compression.level", level, 1, 22).
//	    Custom(workers == 0 || algo == "zstd", "compression.workers", "is only supported by zstd").
//	    Validate()
//
// Both forms report failures as *errors.AppError with code INVALID_ARGUMENT
// and a "fields" detail listing every offending field.
package validation
