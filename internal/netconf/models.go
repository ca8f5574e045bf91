package netconf

import (
	"fmt"
	"slices"
	"strings"
)

// MAC binding modes.
const (
	ModeMAB   = "mab"
	ModeLogin = "login"
	ModeOwned = "owned"
)

// auditNoVLAN is recorded in place of a VLAN for owned bindings.
const auditNoVLAN = "n/a"

// VLAN is a named, numbered network segment.
type VLAN struct {
	Name        string
	Number      int
	Cell        string
	LAN         string
	Owner       string
	Description string
	// Initiate lists the VLANs this one may transition into.
	Initiate []string
}

// Object is a catalog entry describing a base device class.
type Object struct {
	Name   string
	Make   string
	Model  string
	Type   string
	System string
}

// MacBinding ties a MAC address to an authentication mode.
// VLAN is only meaningful for mab and login.
type MacBinding struct {
	Mode string
	VLAN string
}

// Device is a piece of equipment owned by a user.
type Device struct {
	Name string
	Base string
	MACs map[string]MacBinding
}

// User is a registry entry with its devices.
type User struct {
	Name        string
	DefaultVLAN string
	Devices     []Device
}

// Password is the credential entry for a user.
type Password struct {
	User     string
	Password string
	MD5      bool
}

// Tables holds the four loaded record sets for a single compile run.
type Tables struct {
	VLANs     []*VLAN
	Objects   []*Object
	Users     []*User
	Passwords []*Password
}

// Audit is one (user, vlan, mac) row of the audit trail.
type Audit struct {
	User string
	VLAN string
	MAC  string
}

// Line renders the audit row as written to audit.csv, without newline.
func (a Audit) Line() string {
	return fmt.Sprintf("%s,%s,%s", a.User, a.VLAN, a.MAC)
}

// Whitelist is a MAC allowed through MAC authentication bypass.
type Whitelist struct {
	User string
	MAC  string
}

// Eap is the derived EAP credential record for a user.
type Eap struct {
	User string
	Pass string
	VLAN int
	MD5  bool
}

// SysInfo describes a registered device.
type SysInfo struct {
	ID         string
	Make       string
	Model      string
	ObjType    string
	SystemType string
	User       string
}

// Manifest is the validated, derived record set. It is built only by Validate
// and exposes copies so it cannot be changed afterwards.
type Manifest struct {
	audit     []Audit
	whitelist []Whitelist
	eapUsers  []Eap
	sysInfo   []SysInfo
}

// Audit returns the user, VLAN and MAC audit rows.
func (m *Manifest) Audit() []Audit { return slices.Clone(m.audit) }

// Whitelist returns the user and MAC pairs admitted by the daemon.
func (m *Manifest) Whitelist() []Whitelist { return slices.Clone(m.whitelist) }

// EapUsers returns the derived EAP credential records.
func (m *Manifest) EapUsers() []Eap { return slices.Clone(m.eapUsers) }

// SysInfo returns the registered device records.
func (m *Manifest) SysInfo() []SysInfo { return slices.Clone(m.sysInfo) }

// UserNames returns the sorted set of users in the manifest.
func (m *Manifest) UserNames() []string {
	names := make([]string, 0, len(m.eapUsers))
	for _, e := range m.eapUsers {
		names = append(names, e.User)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// AuditLines returns the rendered audit rows sorted lexicographically.
func (m *Manifest) AuditLines() []string {
	lines := make([]string, 0, len(m.audit))
	for _, a := range m.audit {
		lines = append(lines, a.Line())
	}
	slices.Sort(lines)
	return lines
}

// Mode selects whether a full compile reconciles live state.
type Mode int

const (
	// ModeServer reconciles live state and signals daemons.
	ModeServer Mode = iota
	// ModeClient only compiles; used on non-authoritative nodes.
	ModeClient
)

func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeClient:
		return "client"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Daemon is a process that must reload after live state changes.
type Daemon struct {
	Name   string
	Signal string
}

func (d Daemon) String() string {
	return d.Name + "/" + strings.TrimPrefix(d.Signal, "-")
}
