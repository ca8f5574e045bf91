package netconf

import (
	"errors"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Diagnostic codes. Validation codes (1xxx) are raised before any artifact is
// written; artifact codes (2xxx) and process codes (3xxx) are raised later in
// the pipeline.
const (
	ErrCodeNoVLANs         = "NETCONF_1000"
	ErrCodeDuplicateName   = "NETCONF_1001"
	ErrCodeUnknownInitiate = "NETCONF_1002"
	ErrCodeUnknownDefault  = "NETCONF_1003"
	ErrCodeMissingPassword = "NETCONF_1004"
	ErrCodeUnknownBase     = "NETCONF_1005"
	ErrCodeUnknownMode     = "NETCONF_1006"
	ErrCodeMacModeConflict = "NETCONF_1007"
	ErrCodeMissingEapUsers = "NETCONF_2001"
	ErrCodeArtifactWrite   = "NETCONF_2002"
	ErrCodeMirrorFailed    = "NETCONF_2003"
	ErrCodeLegacyBridge    = "NETCONF_3001"
	ErrCodeSignalFailed    = "NETCONF_3002"
)

// DiagnosticCode returns the diagnostic code carried by err, or "" when err
// is not a coded diagnostic.
func DiagnosticCode(err error) string {
	var d *goerrors.Error
	if errors.As(err, &d) {
		return string(d.ErrorCode())
	}
	return ""
}

// DiagnosticContext returns the context value recorded under key, if any.
func DiagnosticContext(err error, key string) (any, bool) {
	var d *goerrors.Error
	if !errors.As(err, &d) || d.Context == nil {
		return nil, false
	}
	v, ok := d.Context[key]
	return v, ok
}

func newDuplicateNameError(table, name string) *goerrors.Error {
	return goerrors.New(ErrCodeDuplicateName, fmt.Sprintf("duplicate %s name: %s", table, name)).
		WithContext("table", table).
		WithContext("name", name).
		WithSeverity("error")
}

func newNoVLANsError() *goerrors.Error {
	return goerrors.New(ErrCodeNoVLANs, "no vlans defined").
		WithSeverity("error")
}

func newUnknownInitiateError(vlan, initiate string) *goerrors.Error {
	return goerrors.New(ErrCodeUnknownInitiate, fmt.Sprintf("%s has initiate that is not a vlan: %s", vlan, initiate)).
		WithContext("vlan", vlan).
		WithContext("initiate", initiate).
		WithSeverity("error")
}

func newUnknownDefaultVLANError(user, vlan string) *goerrors.Error {
	return goerrors.New(ErrCodeUnknownDefault, fmt.Sprintf("%s has invalid default vlan: %s", user, vlan)).
		WithContext("user", user).
		WithContext("vlan", vlan).
		WithSeverity("error")
}

func newMissingPasswordError(user string) *goerrors.Error {
	return goerrors.New(ErrCodeMissingPassword, fmt.Sprintf("%s has no password", user)).
		WithContext("user", user).
		WithSeverity("error")
}

func newUnknownBaseError(user, device, base string) *goerrors.Error {
	return goerrors.New(ErrCodeUnknownBase, fmt.Sprintf("%s -> %s has invalid base: %s", user, device, base)).
		WithContext("user", user).
		WithContext("device", device).
		WithContext("object", base).
		WithSeverity("error")
}

func newUnknownModeError(user, device, mac, mode string) *goerrors.Error {
	return goerrors.New(ErrCodeUnknownMode, fmt.Sprintf("unknown mode %q for %s -> %s", mode, user, mac)).
		WithContext("user", user).
		WithContext("device", device).
		WithContext("mac", mac).
		WithContext("mode", mode).
		WithSeverity("error")
}

func newMacModeConflictError(user, device, mac, mode, previous string) *goerrors.Error {
	return goerrors.New(ErrCodeMacModeConflict, fmt.Sprintf("%s -> %s cannot change type (%s was %s)", user, mac, mode, previous)).
		WithUserMessage("a MAC keeps its mode (owned, mab or login) across every user").
		WithContext("user", user).
		WithContext("device", device).
		WithContext("mac", mac).
		WithContext("mode", mode).
		WithContext("previous_mode", previous).
		WithSeverity("error")
}

func newMissingEapUsersError(location string, cause error) *goerrors.Error {
	msg := fmt.Sprintf("eap_users file is missing: %s", location)
	err := goerrors.New(ErrCodeMissingEapUsers, msg)
	if cause != nil {
		err = goerrors.Wrap(cause, ErrCodeMissingEapUsers, msg)
	}
	return err.WithContext("location", location).WithSeverity("error")
}

func newArtifactWriteError(name string, cause error) *goerrors.Error {
	return goerrors.Wrap(cause, ErrCodeArtifactWrite, fmt.Sprintf("unable to write artifact %s", name)).
		WithContext("artifact", name).
		WithSeverity("error")
}

func newMirrorError(mirror, name string, cause error) *goerrors.Error {
	return goerrors.Wrap(cause, ErrCodeMirrorFailed, fmt.Sprintf("unable to mirror %s to %s", name, mirror)).
		WithContext("mirror", mirror).
		WithContext("artifact", name).
		WithSeverity("error")
}

func newLegacyBridgeError(cause error) *goerrors.Error {
	return goerrors.Wrap(cause, ErrCodeLegacyBridge, "legacy bridge failed").
		WithSeverity("error")
}

func newSignalError(daemon Daemon, pid int, cause error) *goerrors.Error {
	return goerrors.Wrap(cause, ErrCodeSignalFailed, fmt.Sprintf("signal %s failed for pid %d", daemon, pid)).
		WithContext("daemon", daemon.Name).
		WithContext("pid", pid).
		WithSeverity("warning")
}
