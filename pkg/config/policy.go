package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/librescoot/usbmoded/pkg/mode"
)

// policyFile is the on-disk shape of policy.yaml: superuser names,
// per-user configured-mode slots, a fallback default slot, and the
// internal-to-external mode name synonyms the controller publishes.
type policyFile struct {
	SuperUsers  []string          `yaml:"super_users"`
	DefaultMode string            `yaml:"default_mode"`
	UserModes   map[string]string `yaml:"user_modes"`
	Synonyms    map[string]string `yaml:"synonyms"`
}

// Policy is the parsed, mode.Name-typed form of policy.yaml.
type Policy struct {
	SuperUsers  []string
	DefaultMode mode.Name
	UserModes   map[mode.UserID]mode.Name
	Synonyms    map[mode.Name]mode.Name
}

// LoadPolicy reads policy.yaml at path.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	p := &Policy{
		SuperUsers:  f.SuperUsers,
		DefaultMode: mode.Name(f.DefaultMode),
		UserModes:   make(map[mode.UserID]mode.Name, len(f.UserModes)),
		Synonyms:    make(map[mode.Name]mode.Name, len(f.Synonyms)),
	}
	for user, m := range f.UserModes {
		p.UserModes[mode.UserID(user)] = mode.Name(m)
	}
	for internal, external := range f.Synonyms {
		p.Synonyms[mode.Name(internal)] = mode.Name(external)
	}
	return p, nil
}

// ConfiguredMode resolves the mode configured for user: the per-user
// slot if one exists, otherwise the global default slot. Matches the
// signature selector.Policy.ConfiguredMode expects.
func (p *Policy) ConfiguredMode(user mode.UserID) mode.Name {
	if user != mode.UnknownUser {
		if m, ok := p.UserModes[user]; ok {
			return m
		}
	}
	return p.DefaultMode
}
