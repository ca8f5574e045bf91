// Package loader reads the YAML config tree into netconf tables.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"netconf-go/internal/netconf"
)

// Well-known file names in the config tree.
const (
	ObjectsFile         = "objects.yaml"
	PasswordsFile       = "passwords.yaml"
	SealedPasswordsFile = PasswordsFile + ".age"
)

// UnlockFunc returns the decryption context used for sealed files. It is
// only called when the tree holds a sealed file.
type UnlockFunc func() (netconf.DecryptionContext, error)

type vlanDoc struct {
	Name        string   `yaml:"name"`
	Number      int      `yaml:"number"`
	Cell        string   `yaml:"cell"`
	LAN         string   `yaml:"lan"`
	Owner       string   `yaml:"owner"`
	Description string   `yaml:"description"`
	Initiate    []string `yaml:"initiate"`
}

type macDoc struct {
	MAC  string `yaml:"mac"`
	Mode string `yaml:"mode"`
	VLAN string `yaml:"vlan"`
}

type deviceDoc struct {
	Name string   `yaml:"name"`
	Base string   `yaml:"base"`
	MACs []macDoc `yaml:"macs"`
}

type userDoc struct {
	Name        string      `yaml:"name"`
	DefaultVLAN string      `yaml:"default_vlan"`
	Devices     []deviceDoc `yaml:"devices"`
}

type sourceDoc struct {
	VLANs []vlanDoc `yaml:"vlans"`
	Users []userDoc `yaml:"users"`
}

type objectDoc struct {
	Make   string `yaml:"make"`
	Model  string `yaml:"model"`
	Type   string `yaml:"type"`
	System string `yaml:"system"`
}

type passwordDoc struct {
	Password string `yaml:"password"`
	MD5      bool   `yaml:"md5"`
}

// YAMLLoader parses the config tree. Source files (*.yaml, *.yml) declare
// vlans and users; objects.yaml and passwords.yaml hold the catalog and the
// credentials. Other files are skipped.
type YAMLLoader struct {
	fsmgr  netconf.FilesystemManager
	unlock UnlockFunc
}

var _ netconf.ConfigLoader = (*YAMLLoader)(nil)

// NewYAMLLoader creates a loader. unlock may be nil when the tree holds no
// sealed files.
func NewYAMLLoader(fsmgr netconf.FilesystemManager, unlock UnlockFunc) *YAMLLoader {
	return &YAMLLoader{fsmgr: fsmgr, unlock: unlock}
}

// Load parses files into tables. Names must be unique across the whole
// tree; the error for a duplicate names both files.
func (l *YAMLLoader) Load(files []string) (*netconf.Tables, error) {
	var objectsPath, passwordsPath, sealedPath string
	var sources []string
	for _, f := range files {
		switch base := filepath.Base(f); {
		case base == ObjectsFile:
			objectsPath = f
		case base == PasswordsFile:
			passwordsPath = f
		case base == SealedPasswordsFile:
			sealedPath = f
		case strings.HasSuffix(base, ".yaml"), strings.HasSuffix(base, ".yml"):
			sources = append(sources, f)
		}
	}

	if objectsPath == "" {
		return nil, fmt.Errorf("config tree has no %s", ObjectsFile)
	}
	if passwordsPath == "" && sealedPath == "" {
		return nil, fmt.Errorf("config tree has no %s or %s", PasswordsFile, SealedPasswordsFile)
	}
	if passwordsPath != "" && sealedPath != "" {
		return nil, fmt.Errorf("config tree has both %s and %s", PasswordsFile, SealedPasswordsFile)
	}

	tables := &netconf.Tables{}
	vlanSeen := make(map[string]string)
	userSeen := make(map[string]string)
	for _, path := range sources {
		var doc sourceDoc
		if err := l.decodeFile(path, &doc); err != nil {
			return nil, err
		}
		for _, v := range doc.VLANs {
			if prev, ok := vlanSeen[v.Name]; ok {
				return nil, fmt.Errorf("vlan %s defined in both %s and %s", v.Name, prev, path)
			}
			vlanSeen[v.Name] = path
			tables.VLANs = append(tables.VLANs, &netconf.VLAN{
				Name:        v.Name,
				Number:      v.Number,
				Cell:        v.Cell,
				LAN:         v.LAN,
				Owner:       v.Owner,
				Description: v.Description,
				Initiate:    v.Initiate,
			})
		}
		for _, u := range doc.Users {
			if prev, ok := userSeen[u.Name]; ok {
				return nil, fmt.Errorf("user %s defined in both %s and %s", u.Name, prev, path)
			}
			userSeen[u.Name] = path
			user, err := convertUser(u)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			tables.Users = append(tables.Users, user)
		}
	}

	objects, err := l.loadObjects(objectsPath)
	if err != nil {
		return nil, err
	}
	tables.Objects = objects

	passwords, err := l.loadPasswords(passwordsPath, sealedPath)
	if err != nil {
		return nil, err
	}
	tables.Passwords = passwords

	return tables, nil
}

func convertUser(u userDoc) (*netconf.User, error) {
	user := &netconf.User{Name: u.Name, DefaultVLAN: u.DefaultVLAN}
	for _, d := range u.Devices {
		dev := netconf.Device{
			Name: d.Name,
			Base: d.Base,
			MACs: make(map[string]netconf.MacBinding, len(d.MACs)),
		}
		for _, m := range d.MACs {
			mac := normalizeMAC(m.MAC)
			if mac == "" {
				return nil, fmt.Errorf("user %s device %s has an empty mac", u.Name, d.Name)
			}
			if _, ok := dev.MACs[mac]; ok {
				return nil, fmt.Errorf("user %s device %s lists mac %s twice", u.Name, d.Name, mac)
			}
			dev.MACs[mac] = netconf.MacBinding{Mode: m.Mode, VLAN: m.VLAN}
		}
		user.Devices = append(user.Devices, dev)
	}
	return user, nil
}

func normalizeMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}

func (l *YAMLLoader) loadObjects(path string) ([]*netconf.Object, error) {
	docs := make(map[string]objectDoc)
	if err := l.decodeFile(path, &docs); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	objects := make([]*netconf.Object, 0, len(names))
	for _, name := range names {
		o := docs[name]
		objects = append(objects, &netconf.Object{
			Name:   name,
			Make:   o.Make,
			Model:  o.Model,
			Type:   o.Type,
			System: o.System,
		})
	}
	return objects, nil
}

func (l *YAMLLoader) loadPasswords(plainPath, sealedPath string) ([]*netconf.Password, error) {
	var data []byte
	var err error
	path := plainPath
	if sealedPath != "" {
		path = sealedPath
		data, err = l.readSealed(sealedPath)
	} else {
		data, err = l.readFile(plainPath)
	}
	if err != nil {
		return nil, err
	}

	docs := make(map[string]passwordDoc)
	if err := decode(path, data, &docs); err != nil {
		return nil, err
	}
	users := make([]string, 0, len(docs))
	for user := range docs {
		users = append(users, user)
	}
	sort.Strings(users)

	passwords := make([]*netconf.Password, 0, len(users))
	for _, user := range users {
		p := docs[user]
		passwords = append(passwords, &netconf.Password{User: user, Password: p.Password, MD5: p.MD5})
	}
	return passwords, nil
}

func (l *YAMLLoader) readSealed(path string) ([]byte, error) {
	if l.unlock == nil {
		return nil, fmt.Errorf("%s is encrypted but no key is available", path)
	}
	dc, err := l.unlock()
	if err != nil {
		return nil, fmt.Errorf("unlocking key for %s: %w", path, err)
	}
	f, err := l.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := dc.Decrypt(f, &buf); err != nil {
		return nil, fmt.Errorf("decrypting %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

func (l *YAMLLoader) readFile(path string) ([]byte, error) {
	f, err := l.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (l *YAMLLoader) decodeFile(path string, v any) error {
	data, err := l.readFile(path)
	if err != nil {
		return err
	}
	return decode(path, data, v)
}

// decode parses one YAML document strictly. An empty file decodes to the
// zero value.
func decode(path string, data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
