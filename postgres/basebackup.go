package postgres

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/validation"
)

// Compression algorithms.
const (
	CompressionGzip = "gzip"
	CompressionLZ4  = "lz4"
	CompressionZstd = "zstd"
	CompressionNone = "none"
)

// Compression configures backup compression.
type Compression struct {
	Type string `yaml:"type" mapstructure:"type" validate:"required,oneof=gzip lz4 zstd none"`
	// Format is the backup format, "plain" or "tar". Defaults to tar.
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=plain tar"`
	// Level is the compression level; nil uses the algorithm default.
	Level *int `yaml:"level" mapstructure:"level" validate:"omitempty,gte=0"`
	// Location is "client" or "server" (PostgreSQL 15 and later only).
	Location string `yaml:"location" mapstructure:"location" validate:"omitempty,oneof=client server"`
	// Workers is the number of zstd workers (PostgreSQL 15 and later only).
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
}

// compressionLevels bounds the level accepted for each algorithm.
var compressionLevels = map[string][2]int{
	CompressionGzip: {0, 9},
	CompressionLZ4:  {0, 12},
	CompressionZstd: {1, 22},
	CompressionNone: {0, 0},
}

// check applies the rules spanning several fields of c.
func (c *Compression) check() error {
	v := validation.New()
	if bounds, ok := compressionLevels[c.Type]; ok && c.Level != nil {
		v.Range("compression.level", *c.Level, bounds[0], bounds[1])
	}
	v.Custom(c.Workers == 0 || c.Type == CompressionZstd, "compression.workers", "is only supported by zstd")
	return v.Validate()
}

// BaseBackupConfig describes a pg_basebackup invocation.
type BaseBackupConfig struct {
	// Command is the client path or name. Defaults to "pg_basebackup".
	Command     string
	Destination string `validate:"required"`
	// Version is the client version; it selects version-gated flags.
	Version string
	AppName string
	// TablespaceMapping relocates tablespaces, keyed by old location.
	TablespaceMapping map[string]string
	// MaxRate limits the transfer rate in kB/s; 0 means unlimited.
	MaxRate int `validate:"gte=0"`
	// Immediate requests a fast checkpoint.
	Immediate bool
	// StreamWAL keeps the client's default WAL handling on 10 and later.
	StreamWAL   bool
	Compression *Compression
	// ParentManifest makes the backup incremental on top of that manifest.
	ParentManifest string
	Args           []string
}

// NewBaseBackup returns a pg_basebackup command copying the cluster reached
// through conn into cfg.Destination.
func NewBaseBackup(conn Connection, cfg BaseBackupConfig, opts ...process.Option) (*process.Command, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	if cfg.Compression != nil {
		if err := cfg.Compression.check(); err != nil {
			return nil, err
		}
	}
	args, err := baseBackupArgs(conn, cfg)
	if err != nil {
		return nil, err
	}
	return newClient(cfg.Command, "pg_basebackup", args, opts)
}

func baseBackupArgs(conn Connection, cfg BaseBackupConfig) ([]string, error) {
	caps := capabilitiesFor(cfg.Version)

	args := connectionArgs(conn, caps, cfg.AppName)
	args = append(args, "-v", "--no-password", "--pgdata="+cfg.Destination)
	if caps.walMethod && !cfg.StreamWAL {
		// WAL is archived separately; neither a slot nor WAL files are needed.
		args = append(args, "--no-slot", "--wal-method=none")
	}
	for _, from := range slices.Sorted(maps.Keys(cfg.TablespaceMapping)) {
		args = append(args, "--tablespace-mapping="+from+"="+cfg.TablespaceMapping[from])
	}
	if cfg.MaxRate > 0 {
		args = append(args, "--max-rate="+strconv.Itoa(cfg.MaxRate))
	}
	if cfg.Immediate {
		args = append(args, "--checkpoint=fast")
	}
	compression, err := compressionArgs(caps, cfg.Compression)
	if err != nil {
		return nil, err
	}
	args = append(args, compression...)
	if cfg.ParentManifest != "" {
		args = append(args, "--incremental="+cfg.ParentManifest)
	}
	return append(args, cfg.Args...), nil
}

func compressionArgs(caps capabilities, c *Compression) ([]string, error) {
	if c == nil {
		return nil, nil
	}
	format := c.Format
	if format == "" {
		format = "tar"
	}
	if caps.unifiedCompression {
		return []string{unifiedCompressionFlag(c), "--format=" + format}, nil
	}

	var args []string
	switch c.Type {
	case CompressionGzip:
		args = append(args, "--gzip")
	case CompressionNone:
	default:
		return nil, process.UsageError("%s compression requires pg_basebackup 15 or later", c.Type)
	}
	args = append(args, "--format="+format)
	switch {
	case c.Level != nil:
		args = append(args, "--compress="+strconv.Itoa(*c.Level))
	case c.Type == CompressionNone:
		args = append(args, "--compress=0")
	}
	return args, nil
}

// unifiedCompressionFlag renders --compress=[location-]algorithm[:options].
func unifiedCompressionFlag(c *Compression) string {
	var b strings.Builder
	b.WriteString("--compress=")
	if c.Location != "" {
		b.WriteString(c.Location + "-")
	}
	b.WriteString(c.Type)

	var detail []string
	if c.Level != nil {
		detail = append(detail, "level="+strconv.Itoa(*c.Level))
	}
	if c.Workers > 0 {
		detail = append(detail, "workers="+strconv.Itoa(c.Workers))
	}
	if len(detail) > 0 {
		b.WriteString(":" + strings.Join(detail, ","))
	}
	return b.String()
}
