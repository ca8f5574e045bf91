package process

import (
	"netconf-go/internal/netconf"
)

// CommandBridge runs the legacy admin binary with the VLAN name=number pairs
// as arguments.
type CommandBridge struct {
	binary string
	runner CommandRunner
}

// NewCommandBridge creates a bridge for binary, run through runner or the
// host when nil.
func NewCommandBridge(binary string, runner CommandRunner) *CommandBridge {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CommandBridge{binary: binary, runner: runner}
}

// Run invokes the binary once. A non-zero exit is an error carrying stderr.
func (b *CommandBridge) Run(args []string) error {
	_, stderr, code, err := b.runner.Run(b.binary, args...)
	if err != nil {
		return commandError(b.binary, code, stderr, err)
	}
	return nil
}

var _ netconf.LegacyBridge = (*CommandBridge)(nil)
