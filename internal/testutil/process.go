package testutil

import (
	"sync"

	"netconf-go/internal/netconf"
)

// SentSignal records one delivery made through FakeSignaler.
type SentSignal struct {
	PID    int
	Signal string
}

// FakeSignaler serves PIDs from a table and records signals instead of
// delivering them.
type FakeSignaler struct {
	mu        sync.Mutex
	pids      map[string][]int
	pidErr    map[string]error
	signalErr map[int]error
	sent      []SentSignal
	lookups   []string
}

func NewFakeSignaler() *FakeSignaler {
	return &FakeSignaler{
		pids:      make(map[string][]int),
		pidErr:    make(map[string]error),
		signalErr: make(map[int]error),
	}
}

// SetPIDs registers the running processes for name.
func (s *FakeSignaler) SetPIDs(name string, pids ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pids[name] = pids
}

// FailLookup makes PIDs(name) return err.
func (s *FakeSignaler) FailLookup(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pidErr[name] = err
}

// FailSignal makes Signal(pid, ...) return err.
func (s *FakeSignaler) FailSignal(pid int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalErr[pid] = err
}

func (s *FakeSignaler) PIDs(name string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, name)
	if err := s.pidErr[name]; err != nil {
		return nil, err
	}
	return append([]int(nil), s.pids[name]...), nil
}

func (s *FakeSignaler) Signal(pid int, sig string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.signalErr[pid]; err != nil {
		return err
	}
	s.sent = append(s.sent, SentSignal{PID: pid, Signal: sig})
	return nil
}

// Sent returns the successful deliveries in order.
func (s *FakeSignaler) Sent() []SentSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentSignal(nil), s.sent...)
}

// Lookups returns the daemon names resolved, in order.
func (s *FakeSignaler) Lookups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lookups...)
}

var _ netconf.Signaler = (*FakeSignaler)(nil)

// FakeBridge records the argument lists it is run with.
type FakeBridge struct {
	Err   error
	Calls [][]string
}

func (b *FakeBridge) Run(args []string) error {
	b.Calls = append(b.Calls, append([]string(nil), args...))
	return b.Err
}

var _ netconf.LegacyBridge = (*FakeBridge)(nil)

// StaticLoader returns fixed tables, recording the files it was given.
type StaticLoader struct {
	Tables *netconf.Tables
	Err    error
	Files  []string
}

func (l *StaticLoader) Load(files []string) (*netconf.Tables, error) {
	l.Files = append([]string(nil), files...)
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Tables, nil
}

var _ netconf.ConfigLoader = (*StaticLoader)(nil)
