package netconf_test

import (
	"io"
	"strings"
	"testing"

	"netconf-go/internal/netconf"
	"netconf-go/internal/store"
	"netconf-go/internal/testutil"
)

const (
	configDir  = "/etc/netconf"
	liveDir    = "/var/lib/radiucal"
	scratchDir = "/tmp"
)

// harness wires a Compiler to in-memory collaborators.
type harness struct {
	fs       *testutil.MockFilesystemManager
	loader   *testutil.StaticLoader
	output   *store.MemoryStore
	signaler *testutil.FakeSignaler
	bridge   *testutil.FakeBridge
	logger   *testutil.RecordingLogger
	clock    *testutil.StubClock
	mirrors  []netconf.ArtifactStore
	daemons  []netconf.Daemon
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fsmgr := testutil.NewMockFilesystemManager()
	fsmgr.AddFile(configDir+"/users.yaml", []byte("users: []\n"))
	fsmgr.AddFile(configDir+"/eap_users", []byte("\"alice\" PEAP\n"))
	fsmgr.AddDirectory(liveDir)
	fsmgr.AddDirectory(scratchDir)

	return &harness{
		fs:       fsmgr,
		loader:   &testutil.StaticLoader{Tables: aliceTables()},
		output:   store.NewMemoryStore("output"),
		signaler: testutil.NewFakeSignaler(),
		bridge:   &testutil.FakeBridge{},
		logger:   testutil.NewRecordingLogger(),
		clock:    testutil.FixedClock(),
		daemons: []netconf.Daemon{
			{Name: "hostapd", Signal: "HUP"},
			{Name: "radiucal", Signal: "INT"},
		},
	}
}

func (h *harness) compiler() *netconf.Compiler {
	return netconf.NewCompiler(netconf.Options{
		Filesystem: h.fs,
		Loader:     h.loader,
		Output:     h.output,
		Mirrors:    h.mirrors,
		Bridge:     h.bridge,
		Signaler:   h.signaler,
		Daemons:    h.daemons,
		Paths: netconf.Paths{
			ConfigDir:  configDir,
			LiveDir:    liveDir,
			ScratchDir: scratchDir,
		},
		Logger: h.logger,
		Clock:  h.clock,
	})
}

// outputString returns the named artifact, failing the test if it is absent.
func (h *harness) outputString(t *testing.T, name string) string {
	t.Helper()
	data, ok := h.output.Content(name)
	if !ok {
		t.Fatalf("artifact %s not written", name)
	}
	return string(data)
}

func bytesReader(s string) io.Reader { return strings.NewReader(s) }
