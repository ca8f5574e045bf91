package netconf

import (
	"slices"
	"sort"
	"strconv"
	"strings"
)

// index builds a name lookup for one table, rejecting duplicate names.
func index[T any](table string, items []*T, name func(*T) string) (map[string]*T, error) {
	idx := make(map[string]*T, len(items))
	for _, item := range items {
		n := name(item)
		if _, ok := idx[n]; ok {
			return nil, newDuplicateNameError(table, n)
		}
		idx[n] = item
	}
	return idx, nil
}

// Validate checks referential integrity across the loaded tables and derives
// the Manifest. The first violated rule aborts validation and no Manifest is
// returned. Validate has no side effects.
//
// Rules, in order: VLAN initiate targets exist, user default VLANs exist,
// every user has a password, device bases exist, MAC modes are known, and a
// MAC keeps the same mode everywhere it appears.
func Validate(t *Tables) (*Manifest, error) {
	if len(t.VLANs) == 0 {
		return nil, newNoVLANsError()
	}

	vlans, err := index("vlan", t.VLANs, func(v *VLAN) string { return v.Name })
	if err != nil {
		return nil, err
	}
	objects, err := index("object", t.Objects, func(o *Object) string { return o.Name })
	if err != nil {
		return nil, err
	}
	users, err := index("user", t.Users, func(u *User) string { return u.Name })
	if err != nil {
		return nil, err
	}
	passwords, err := index("password", t.Passwords, func(p *Password) string { return p.User })
	if err != nil {
		return nil, err
	}

	for _, name := range sortedKeys(vlans) {
		for _, target := range vlans[name].Initiate {
			if _, ok := vlans[target]; !ok {
				return nil, newUnknownInitiateError(name, target)
			}
		}
	}

	m := &Manifest{}
	tracked := make(map[string]string)
	for _, name := range sortedKeys(users) {
		u := users[name]
		vlan, ok := vlans[u.DefaultVLAN]
		if !ok {
			return nil, newUnknownDefaultVLANError(name, u.DefaultVLAN)
		}
		pass, ok := passwords[name]
		if !ok {
			return nil, newMissingPasswordError(name)
		}
		m.eapUsers = append(m.eapUsers, Eap{
			User: name,
			Pass: pass.Password,
			VLAN: vlan.Number,
			MD5:  pass.MD5,
		})

		for _, d := range u.Devices {
			obj, ok := objects[d.Base]
			if !ok {
				return nil, newUnknownBaseError(name, d.Name, d.Base)
			}
			m.sysInfo = append(m.sysInfo, SysInfo{
				ID:         d.Name,
				Make:       obj.Make,
				Model:      obj.Model,
				ObjType:    obj.Type,
				SystemType: obj.System,
				User:       name,
			})

			for _, mac := range sortedKeys(d.MACs) {
				binding := d.MACs[mac]
				var auditVLAN string
				switch binding.Mode {
				case ModeMAB:
					auditVLAN = binding.VLAN
					m.whitelist = append(m.whitelist, Whitelist{User: name, MAC: mac})
				case ModeLogin:
					auditVLAN = binding.VLAN
				case ModeOwned:
					auditVLAN = auditNoVLAN
				default:
					return nil, newUnknownModeError(name, d.Name, mac, binding.Mode)
				}
				m.audit = append(m.audit, Audit{User: name, VLAN: auditVLAN, MAC: mac})

				if prev, seen := tracked[mac]; seen {
					if prev != binding.Mode {
						return nil, newMacModeConflictError(name, d.Name, mac, binding.Mode, prev)
					}
					continue
				}
				tracked[mac] = binding.Mode
			}
		}
	}

	return m, nil
}

// VLANArgs returns the name=number pairs for the legacy bridge, sorted by name.
func VLANArgs(vlans []*VLAN) []string {
	args := make([]string, 0, len(vlans))
	for _, v := range sortedVLANs(vlans) {
		args = append(args, v.Name+"="+strconv.Itoa(v.Number))
	}
	return args
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedVLANs(vlans []*VLAN) []*VLAN {
	out := slices.Clone(vlans)
	slices.SortFunc(out, func(a, b *VLAN) int { return strings.Compare(a.Name, b.Name) })
	return out
}
