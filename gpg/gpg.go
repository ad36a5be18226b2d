// Package gpg builds gpg invocations that encrypt backup files for a
// recipient and decrypt them with a passphrase read from stdin.
package gpg

import (
	"context"
	"fmt"

	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/validation"
)

// Component is the name gpg invocations log under.
const Component = "gpg"

// Actions.
const (
	Encrypt = "encrypt"
	Decrypt = "decrypt"
)

// baseArgs keep gpg non-interactive.
var baseArgs = []string{"--yes", "--batch", "--pinentry-mode", "loopback"}

// Config holds the gpg settings a host reads from its configuration file.
type Config struct {
	// Command is the gpg executable. Defaults to "gpg".
	Command string `yaml:"command" mapstructure:"command"`
	// Recipient is the key id backups are encrypted for.
	Recipient string `yaml:"recipient" mapstructure:"recipient"`
}

// EncryptParams returns the parameters for encrypting input.
func (c Config) EncryptParams(input string) Params {
	return Params{Command: c.Command, Action: Encrypt, Recipient: c.Recipient, InputPath: input}
}

// DecryptParams returns the parameters for decrypting input into output.
func (c Config) DecryptParams(input, output string) Params {
	return Params{Command: c.Command, Action: Decrypt, InputPath: input, OutputPath: output}
}

// Params describes one gpg invocation.
type Params struct {
	Command    string
	Action     string
	Recipient  string
	InputPath  string
	OutputPath string
}

// GPG is a gpg command.
type GPG struct {
	*process.Command
	action string
}

// New returns a gpg command for p. An action other than encrypt or decrypt
// is an invalid-argument error; a missing recipient or output file is a
// usage error.
func New(p Params, opts ...process.Option) (*GPG, error) {
	args := append([]string(nil), baseArgs...)
	switch p.Action {
	case Encrypt:
		if p.Recipient == "" {
			return nil, process.UsageError("A recipient must be specified to encrypt the backup")
		}
		args = append(args, "--compress-level", "0", "--recipient", p.Recipient, "--encrypt")
	case Decrypt:
		if p.OutputPath == "" {
			return nil, process.UsageError("An output file must be specified to decrypt the backup")
		}
		args = append(args, "--passphrase-fd", "0", "--decrypt", "--output", p.OutputPath)
	default:
		return nil, errors.InvalidArgument("action",
			fmt.Sprintf("Invalid action: '%s'. Expected '%s' or '%s'.", p.Action, Encrypt, Decrypt))
	}
	if err := validation.Required("input_path", p.InputPath); err != nil {
		return nil, err
	}
	args = append(args, p.InputPath)

	name := p.Command
	if name == "" {
		name = "gpg"
	}
	all := []process.Option{
		process.WithComponent(Component),
		process.WithCheck(true),
		process.WithArgs(args...),
	}
	cmd, err := process.New(name, append(all, opts...)...)
	if err != nil {
		return nil, err
	}
	return &GPG{Command: cmd, action: p.Action}, nil
}

// Action returns encrypt or decrypt.
func (g *GPG) Action() string { return g.action }

// Run executes gpg with passphrase on stdin; decryption reads it from
// descriptor 0. Output is logged, not captured.
func (g *GPG) Run(ctx context.Context, passphrase []byte) (int, error) {
	return g.Execute(ctx, passphrase)
}
