// Package config loads the YAML mode and policy files that describe
// every mode the daemon can enter and the whitelist/capability rules
// that gate requesting one directly.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/librescoot/usbmoded/pkg/mode"
)

// modeFile is the on-disk shape of modes.yaml, one entry per configured
// mode plus the hidden/whitelist/diagnostic name lists.
type modeFile struct {
	Modes      []modeEntry `yaml:"modes"`
	Hidden     []string    `yaml:"hidden"`
	Whitelist  []string    `yaml:"whitelist"`
	Diagnostic []string    `yaml:"diagnostic"`
}

type sysfsWriteEntry struct {
	Path  string `yaml:"path"`
	Value string `yaml:"value"`
}

type modeEntry struct {
	Name             string            `yaml:"name"`
	Module           string            `yaml:"module,omitempty"`
	Function         string            `yaml:"function,omitempty"`
	SysfsPath        string            `yaml:"sysfs_path,omitempty"`
	SysfsValue       string            `yaml:"sysfs_value,omitempty"`
	SysfsResetValue  string            `yaml:"sysfs_reset_value,omitempty"`
	ExtraSysfs       []sysfsWriteEntry `yaml:"android_extra_sysfs,omitempty"`
	SoftconnectPath  string            `yaml:"softconnect_path,omitempty"`
	IDProduct        string            `yaml:"id_product,omitempty"`
	IDVendorOverride string            `yaml:"id_vendor_override,omitempty"`
	Network          bool              `yaml:"network,omitempty"`
	Appsync          bool              `yaml:"appsync,omitempty"`
	MassStorage      bool              `yaml:"mass_storage,omitempty"`
	NAT              bool              `yaml:"nat,omitempty"`
	DHCPServer       bool              `yaml:"dhcp_server,omitempty"`
}

// LoadModes reads modes.yaml at path and converts it into a mode.List.
func LoadModes(path string) (*mode.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f modeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	list := &mode.List{
		Hidden:     toNames(f.Hidden),
		Whitelist:  toNames(f.Whitelist),
		Diagnostic: toNames(f.Diagnostic),
	}
	for _, e := range f.Modes {
		if e.Name == "" {
			return nil, fmt.Errorf("parsing %s: mode entry missing a name", path)
		}
		list.Modes = append(list.Modes, toDescriptor(e))
	}
	return list, nil
}

func toDescriptor(e modeEntry) *mode.Descriptor {
	extra := make([]mode.SysfsWrite, len(e.ExtraSysfs))
	for i, w := range e.ExtraSysfs {
		extra[i] = mode.SysfsWrite{Path: w.Path, Value: w.Value}
	}
	return &mode.Descriptor{
		Name:             mode.Name(e.Name),
		Module:           e.Module,
		Function:         e.Function,
		SysfsPath:        e.SysfsPath,
		SysfsValue:       e.SysfsValue,
		SysfsResetValue:  e.SysfsResetValue,
		ExtraSysfs:       extra,
		SoftconnectPath:  e.SoftconnectPath,
		IDProduct:        e.IDProduct,
		IDVendorOverride: e.IDVendorOverride,
		Network:          e.Network,
		Appsync:          e.Appsync,
		MassStorage:      e.MassStorage,
		NAT:              e.NAT,
		DHCPServer:       e.DHCPServer,
	}
}

func toNames(strs []string) []mode.Name {
	names := make([]mode.Name, len(strs))
	for i, s := range strs {
		names[i] = mode.Name(s)
	}
	return names
}
