package process

import (
	"fmt"
	"strconv"
	"strings"

	"netconf-go/internal/netconf"
)

// PidofSignaler finds daemons with pidof(8) and signals them with kill(1).
type PidofSignaler struct {
	runner CommandRunner
}

// NewPidofSignaler creates a signaler using runner, or the host when nil.
func NewPidofSignaler(runner CommandRunner) *PidofSignaler {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PidofSignaler{runner: runner}
}

// PIDs lists the processes named name. pidof exits 1 with no output when
// nothing matches; that is an empty result, not a failure.
func (s *PidofSignaler) PIDs(name string) ([]int, error) {
	stdout, stderr, code, err := s.runner.Run("pidof", name)
	out := strings.TrimSpace(string(stdout))
	if code == 1 && out == "" {
		return nil, nil
	}
	if err != nil {
		return nil, commandError("pidof", code, stderr, err)
	}

	var pids []int
	for _, field := range strings.Fields(out) {
		pid, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("unable to parse pid %q: %w", field, err)
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// Signal delivers sig, a signal name or number, to pid.
func (s *PidofSignaler) Signal(pid int, sig string) error {
	sig = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(sig)), "SIG")
	if sig == "" {
		return fmt.Errorf("no signal given for pid %d", pid)
	}
	_, stderr, code, err := s.runner.Run("kill", "-"+sig, strconv.Itoa(pid))
	if err != nil {
		return commandError("kill", code, stderr, err)
	}
	return nil
}

func commandError(name string, code int32, stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return fmt.Errorf("%s exited %d: %w", name, code, err)
	}
	return fmt.Errorf("%s exited %d: %s: %w", name, code, msg, err)
}

var _ netconf.Signaler = (*PidofSignaler)(nil)
