package process

import (
	"os"
	"syscall"
	"time"
)

// Config holds the command settings a host usually reads from its
// configuration file.
type Config struct {
	// Path is the search path for executables; also the child's PATH.
	Path string `yaml:"path" mapstructure:"path"`
	// RetryTimes is the number of extra attempts for retried invocations.
	RetryTimes int `yaml:"retry_times" mapstructure:"retry_times" validate:"gte=0"`
	// RetrySleep is the fixed delay between attempts.
	RetrySleep time.Duration `yaml:"retry_sleep" mapstructure:"retry_sleep" validate:"gte=0"`
	// Env adds variables to the child environment.
	Env map[string]string `yaml:"env" mapstructure:"env"`
	// DisableProcessGroup keeps children in the host's process group.
	DisableProcessGroup bool `yaml:"disable_process_group" mapstructure:"disable_process_group"`
	// ForwardSignals relays SIGINT and SIGTERM to running children.
	ForwardSignals bool `yaml:"forward_signals" mapstructure:"forward_signals"`
}

// Options converts the config into command options.
func (c Config) Options() []Option {
	var opts []Option
	if c.Path != "" {
		opts = append(opts, WithPath(c.Path))
	}
	if c.RetryTimes > 0 {
		opts = append(opts, WithRetry(c.RetryTimes, c.RetrySleep))
	}
	if len(c.Env) > 0 {
		opts = append(opts, WithEnv(c.Env))
	}
	if c.DisableProcessGroup {
		opts = append(opts, WithProcessGroup(false))
	}
	if c.ForwardSignals {
		opts = append(opts, WithSignalForwarding(os.Interrupt, syscall.SIGTERM))
	}
	return opts
}
