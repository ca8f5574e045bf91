package netconf_test

import (
	"reflect"
	"strings"
	"testing"

	"netconf-go/internal/netconf"
)

// aliceTables is the single-user scenario: VLAN staff=10, object laptop,
// alice on staff with one owned MAC.
func aliceTables() *netconf.Tables {
	return &netconf.Tables{
		VLANs:   []*netconf.VLAN{{Name: "staff", Number: 10}},
		Objects: []*netconf.Object{{Name: "laptop", Make: "lenovo", Model: "t480", Type: "laptop", System: "linux"}},
		Users: []*netconf.User{{
			Name:        "alice",
			DefaultVLAN: "staff",
			Devices: []netconf.Device{{
				Name: "alice-laptop",
				Base: "laptop",
				MACs: map[string]netconf.MacBinding{
					"aa:bb:cc:dd:ee:ff": {Mode: netconf.ModeOwned},
				},
			}},
		}},
		Passwords: []*netconf.Password{{User: "alice", Password: "s3cret"}},
	}
}

func TestValidate_SingleOwnedDevice(t *testing.T) {
	t.Parallel()

	m, err := netconf.Validate(aliceTables())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	lines := m.AuditLines()
	if len(lines) != 1 || lines[0] != "alice,n/a,aa:bb:cc:dd:ee:ff" {
		t.Errorf("AuditLines() = %q, want [alice,n/a,aa:bb:cc:dd:ee:ff]", lines)
	}

	wantEap := []netconf.Eap{{User: "alice", Pass: "s3cret", VLAN: 10}}
	if got := m.EapUsers(); !reflect.DeepEqual(got, wantEap) {
		t.Errorf("EapUsers() = %+v, want %+v", got, wantEap)
	}

	wantSys := []netconf.SysInfo{{
		ID: "alice-laptop", Make: "lenovo", Model: "t480",
		ObjType: "laptop", SystemType: "linux", User: "alice",
	}}
	if got := m.SysInfo(); !reflect.DeepEqual(got, wantSys) {
		t.Errorf("SysInfo() = %+v, want %+v", got, wantSys)
	}

	if got := m.Whitelist(); len(got) != 0 {
		t.Errorf("Whitelist() = %+v, want empty for owned binding", got)
	}
}

func TestValidate_MabWithoutVLAN(t *testing.T) {
	t.Parallel()

	tables := aliceTables()
	tables.Users[0].Devices[0].MACs["aa:bb:cc:dd:ee:ff"] = netconf.MacBinding{Mode: netconf.ModeMAB}

	m, err := netconf.Validate(tables)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	lines := m.AuditLines()
	if len(lines) != 1 || lines[0] != "alice,,aa:bb:cc:dd:ee:ff" {
		t.Errorf("AuditLines() = %q, want [alice,,aa:bb:cc:dd:ee:ff]", lines)
	}
	want := []netconf.Whitelist{{User: "alice", MAC: "aa:bb:cc:dd:ee:ff"}}
	if got := m.Whitelist(); !reflect.DeepEqual(got, want) {
		t.Errorf("Whitelist() = %+v, want %+v", got, want)
	}
}

func TestValidate_LoginUsesBindingVLAN(t *testing.T) {
	t.Parallel()

	tables := aliceTables()
	tables.VLANs = append(tables.VLANs, &netconf.VLAN{Name: "guest", Number: 30})
	tables.Users[0].Devices[0].MACs["aa:bb:cc:dd:ee:ff"] = netconf.MacBinding{Mode: netconf.ModeLogin, VLAN: "guest"}

	m, err := netconf.Validate(tables)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if lines := m.AuditLines(); len(lines) != 1 || lines[0] != "alice,guest,aa:bb:cc:dd:ee:ff" {
		t.Errorf("AuditLines() = %q", lines)
	}
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*netconf.Tables)
		wantCode string
		wantMsg  string
		ctxKey   string
		ctxValue any
	}{
		{
			name:     "no vlans",
			mutate:   func(tb *netconf.Tables) { tb.VLANs = nil },
			wantCode: netconf.ErrCodeNoVLANs,
			wantMsg:  "no vlans defined",
		},
		{
			name: "initiate references missing vlan",
			mutate: func(tb *netconf.Tables) {
				tb.VLANs[0].Initiate = []string{"ghost"}
			},
			wantCode: netconf.ErrCodeUnknownInitiate,
			wantMsg:  "staff has initiate that is not a vlan: ghost",
			ctxKey:   "initiate",
			ctxValue: "ghost",
		},
		{
			name:     "unknown default vlan",
			mutate:   func(tb *netconf.Tables) { tb.Users[0].DefaultVLAN = "nowhere" },
			wantCode: netconf.ErrCodeUnknownDefault,
			wantMsg:  "alice has invalid default vlan: nowhere",
			ctxKey:   "user",
			ctxValue: "alice",
		},
		{
			name:     "missing password",
			mutate:   func(tb *netconf.Tables) { tb.Passwords = nil },
			wantCode: netconf.ErrCodeMissingPassword,
			wantMsg:  "alice has no password",
			ctxKey:   "user",
			ctxValue: "alice",
		},
		{
			name:     "unknown base object",
			mutate:   func(tb *netconf.Tables) { tb.Users[0].Devices[0].Base = "toaster" },
			wantCode: netconf.ErrCodeUnknownBase,
			wantMsg:  "alice -> alice-laptop has invalid base: toaster",
			ctxKey:   "object",
			ctxValue: "toaster",
		},
		{
			name: "unknown mode",
			mutate: func(tb *netconf.Tables) {
				tb.Users[0].Devices[0].MACs["aa:bb:cc:dd:ee:ff"] = netconf.MacBinding{Mode: "radius"}
			},
			wantCode: netconf.ErrCodeUnknownMode,
			ctxKey:   "mac",
			ctxValue: "aa:bb:cc:dd:ee:ff",
		},
		{
			name: "duplicate vlan name",
			mutate: func(tb *netconf.Tables) {
				tb.VLANs = append(tb.VLANs, &netconf.VLAN{Name: "staff", Number: 11})
			},
			wantCode: netconf.ErrCodeDuplicateName,
			ctxKey:   "table",
			ctxValue: "vlan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := aliceTables()
			tt.mutate(tables)

			m, err := netconf.Validate(tables)
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if m != nil {
				t.Error("Validate() returned a manifest alongside an error")
			}
			if code := netconf.DiagnosticCode(err); code != tt.wantCode {
				t.Errorf("DiagnosticCode() = %q, want %q", code, tt.wantCode)
			}
			if tt.wantMsg != "" && !containsMsg(err, tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
			if tt.ctxKey != "" {
				got, ok := netconf.DiagnosticContext(err, tt.ctxKey)
				if !ok || got != tt.ctxValue {
					t.Errorf("DiagnosticContext(%q) = %v, %v; want %v", tt.ctxKey, got, ok, tt.ctxValue)
				}
			}
		})
	}
}

func TestValidate_RuleOrder(t *testing.T) {
	t.Parallel()

	// Both the initiate rule and the password rule are broken; the initiate
	// rule is checked first.
	tables := aliceTables()
	tables.VLANs[0].Initiate = []string{"ghost"}
	tables.Passwords = nil

	_, err := netconf.Validate(tables)
	if code := netconf.DiagnosticCode(err); code != netconf.ErrCodeUnknownInitiate {
		t.Errorf("DiagnosticCode() = %q, want %q", code, netconf.ErrCodeUnknownInitiate)
	}
}

// sharedMACTables has alice and bob both registering the same MAC.
func sharedMACTables(aliceMode, bobMode string) *netconf.Tables {
	tables := aliceTables()
	tables.Users[0].Devices[0].MACs["aa:bb:cc:dd:ee:ff"] = netconf.MacBinding{Mode: aliceMode, VLAN: "staff"}
	tables.Users = append(tables.Users, &netconf.User{
		Name:        "bob",
		DefaultVLAN: "staff",
		Devices: []netconf.Device{{
			Name: "bob-dock",
			Base: "laptop",
			MACs: map[string]netconf.MacBinding{
				"aa:bb:cc:dd:ee:ff": {Mode: bobMode, VLAN: "staff"},
			},
		}},
	})
	tables.Passwords = append(tables.Passwords, &netconf.Password{User: "bob", Password: "hunter2", MD5: true})
	return tables
}

func TestValidate_MacModeConsistency(t *testing.T) {
	t.Parallel()

	t.Run("differing modes fail", func(t *testing.T) {
		_, err := netconf.Validate(sharedMACTables(netconf.ModeOwned, netconf.ModeMAB))
		if code := netconf.DiagnosticCode(err); code != netconf.ErrCodeMacModeConflict {
			t.Fatalf("DiagnosticCode() = %q, want %q (err = %v)", code, netconf.ErrCodeMacModeConflict, err)
		}
		if !containsMsg(err, "cannot change type") {
			t.Errorf("error = %q, want it to mention the type change", err.Error())
		}
		// Users are visited in name order, so bob is the offender.
		if got, _ := netconf.DiagnosticContext(err, "user"); got != "bob" {
			t.Errorf("offending user = %v, want bob", got)
		}
		if got, _ := netconf.DiagnosticContext(err, "previous_mode"); got != netconf.ModeOwned {
			t.Errorf("previous_mode = %v, want %s", got, netconf.ModeOwned)
		}
	})

	t.Run("identical modes add one row per occurrence", func(t *testing.T) {
		m, err := netconf.Validate(sharedMACTables(netconf.ModeLogin, netconf.ModeLogin))
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		want := []string{"alice,staff,aa:bb:cc:dd:ee:ff", "bob,staff,aa:bb:cc:dd:ee:ff"}
		if got := m.AuditLines(); !reflect.DeepEqual(got, want) {
			t.Errorf("AuditLines() = %q, want %q", got, want)
		}
		if got := m.UserNames(); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
			t.Errorf("UserNames() = %q", got)
		}
	})
}

func TestValidate_CyclicInitiateAccepted(t *testing.T) {
	t.Parallel()

	tables := aliceTables()
	tables.VLANs = append(tables.VLANs, &netconf.VLAN{Name: "lab", Number: 20, Initiate: []string{"staff"}})
	tables.VLANs[0].Initiate = []string{"lab"}

	if _, err := netconf.Validate(tables); err != nil {
		t.Fatalf("Validate() error = %v, cycles are accepted", err)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	t.Parallel()

	forward := sharedMACTables(netconf.ModeOwned, netconf.ModeOwned)
	reversed := sharedMACTables(netconf.ModeOwned, netconf.ModeOwned)
	reversed.Users[0], reversed.Users[1] = reversed.Users[1], reversed.Users[0]
	reversed.Passwords[0], reversed.Passwords[1] = reversed.Passwords[1], reversed.Passwords[0]

	a, err := netconf.Validate(forward)
	if err != nil {
		t.Fatal(err)
	}
	b, err := netconf.Validate(reversed)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.AuditLines(), b.AuditLines()) {
		t.Errorf("audit differs by input order: %q vs %q", a.AuditLines(), b.AuditLines())
	}
	if !reflect.DeepEqual(a.EapUsers(), b.EapUsers()) {
		t.Errorf("eap users differ by input order")
	}
}

func TestManifest_ReturnsCopies(t *testing.T) {
	t.Parallel()

	m, err := netconf.Validate(aliceTables())
	if err != nil {
		t.Fatal(err)
	}
	audit := m.Audit()
	audit[0].VLAN = "tampered"
	if m.Audit()[0].VLAN != "n/a" {
		t.Error("Audit() exposed the manifest's backing slice")
	}
}

func TestVLANArgs(t *testing.T) {
	t.Parallel()

	vlans := []*netconf.VLAN{
		{Name: "staff", Number: 10},
		{Name: "iot", Number: 40},
		{Name: "lab", Number: 20},
	}
	want := []string{"iot=40", "lab=20", "staff=10"}
	if got := netconf.VLANArgs(vlans); !reflect.DeepEqual(got, want) {
		t.Errorf("VLANArgs() = %q, want %q", got, want)
	}
}

func containsMsg(err error, sub string) bool {
	return err != nil && strings.Contains(err.Error(), sub)
}
