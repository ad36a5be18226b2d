package postgres

// Config holds the PostgreSQL client settings a host reads from its
// configuration file.
type Config struct {
	// Path is the search path for the client programs.
	Path string `yaml:"path" mapstructure:"path"`
	// AppName tags the connections opened by the clients.
	AppName     string       `yaml:"app_name" mapstructure:"app_name"`
	MaxRate     int          `yaml:"max_rate" mapstructure:"max_rate" validate:"gte=0"`
	Immediate   bool         `yaml:"immediate_checkpoint" mapstructure:"immediate_checkpoint"`
	Compression *Compression `yaml:"compression" mapstructure:"compression"`
	SlotName    string       `yaml:"slot_name" mapstructure:"slot_name"`
	Synchronous bool         `yaml:"synchronous" mapstructure:"synchronous"`
}

// BaseBackup returns the pg_basebackup settings for a backup into
// destination taken with a client of the given version.
func (c Config) BaseBackup(destination, version string) BaseBackupConfig {
	return BaseBackupConfig{
		Destination: destination,
		Version:     version,
		AppName:     c.AppName,
		MaxRate:     c.MaxRate,
		Immediate:   c.Immediate,
		Compression: c.Compression,
	}
}

// ReceiveWAL returns the pg_receivewal settings for streaming into
// destination with a client of the given version.
func (c Config) ReceiveWAL(destination, version string) ReceiveWALConfig {
	return ReceiveWALConfig{
		Destination: destination,
		Version:     version,
		AppName:     c.AppName,
		SlotName:    c.SlotName,
		Synchronous: c.Synchronous,
	}
}
