package postgres

import (
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/validation"
)

// ReceiveWALConfig describes a pg_receivewal invocation.
type ReceiveWALConfig struct {
	// Command is the client path or name. Defaults to "pg_receivewal";
	// pre-10 hosts pass the pg_receivexlog path found by FindCommand.
	Command     string
	Destination string `validate:"required"`
	Version     string
	AppName     string
	// SlotName is the replication slot to stream from.
	SlotName string
	// Synchronous flushes WAL as soon as it is received.
	Synchronous bool
	Args        []string
}

// NewReceiveWAL returns a command streaming WAL from the server reached
// through conn into cfg.Destination. The client exits instead of retrying
// when the connection is lost.
func NewReceiveWAL(conn Connection, cfg ReceiveWALConfig, opts ...process.Option) (*process.Command, error) {
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}
	args := connectionArgs(conn, capabilitiesFor(cfg.Version), cfg.AppName)
	args = append(args, "--verbose", "--no-loop", "--no-password", "--directory="+cfg.Destination)
	if cfg.SlotName != "" {
		args = append(args, "--slot="+cfg.SlotName)
	}
	if cfg.Synchronous {
		args = append(args, "--synchronous")
	}
	args = append(args, cfg.Args...)
	name := cfg.Command
	if name == "" {
		name = ReceiveWALNames[0]
	}
	return newClient(name, "pg_receivewal", args, opts)
}
