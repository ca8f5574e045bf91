package model

import (
	"database/sql"
	"time"
)

// Run status values.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// CompileRun is one recorded invocation of the compiler.
type CompileRun struct {
	ID         int64  // auto-increment row ID
	RunID      string // UUID, also used as the log operation ID
	Operation  string // "all" or "configure"
	Mode       string // "server" or "client"
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
	Digest     string // config tree digest, empty if the run failed before hashing
	Changed    bool
	Message    string // error text for failed runs
}
