package app

import (
	"netconf-go/internal/model"
	"netconf-go/internal/netconf"
)

// RunOperation tracks one CLI compile run. It is created in memory with
// ID=0 and gets its row ID once recorded in the run history.
type RunOperation struct {
	ID      int64
	RunID   string
	Command string
	Mode    string
	Status  string
	Digest  string
	Changed bool
	Message string
}

// NewRunOperation creates a new in-memory run in the running state.
func NewRunOperation(runID, command string, mode netconf.Mode) *RunOperation {
	return &RunOperation{
		RunID:   runID,
		Command: command,
		Mode:    mode.String(),
		Status:  model.RunStatusRunning,
	}
}

// Persisted returns true if this run has been saved to the database.
func (op *RunOperation) Persisted() bool {
	return op.ID != 0
}

// Succeed marks the run successful with the digest it observed.
func (op *RunOperation) Succeed(digest string, changed bool) {
	op.Status = model.RunStatusSuccess
	op.Digest = digest
	op.Changed = changed
}

// Fail marks the run failed. The message carries the diagnostic code when
// err has one.
func (op *RunOperation) Fail(err error) {
	op.Status = model.RunStatusError
	op.Message = err.Error()
	if code := netconf.DiagnosticCode(err); code != "" {
		op.Message = code + ": " + op.Message
	}
}
