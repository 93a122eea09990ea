// Package roles turns free-text role labels into a small canonical role set
// and picks the candidate pool for a task through a strict fallback ladder:
// exact role, cross-functional role, compatible roles, generalists.
//
// The alias and compatibility tables are data, not code. A default table is
// embedded; deployments can load their own YAML file.
package roles

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var defaultTableYAML []byte

const (
	defaultCrossFunctional = "fullstack"
	defaultGeneralist      = "generalist"
)

// RoleDef declares one canonical role.
type RoleDef struct {
	Name       string   `yaml:"name" json:"name"`
	Aliases    []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Keywords   []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Compatible []string `yaml:"compatible,omitempty" json:"compatible,omitempty"`
}

// Table models roles.yaml.
type Table struct {
	Version         int       `yaml:"version" json:"version"`
	CrossFunctional string    `yaml:"cross_functional" json:"cross_functional"`
	Generalist      string    `yaml:"generalist" json:"generalist"`
	Roles           []RoleDef `yaml:"roles" json:"roles"`
}

// DefaultTable returns the embedded role table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableYAML)
}

// LoadTable reads a role table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roles: read table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes and validates a YAML role table.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("roles: parse table: %w", err)
	}
	if t.CrossFunctional == "" {
		t.CrossFunctional = defaultCrossFunctional
	}
	if t.Generalist == "" {
		t.Generalist = defaultGeneralist
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	if len(t.Roles) == 0 {
		return errors.New("roles: table declares no roles")
	}
	seen := make(map[string]bool, len(t.Roles))
	for _, r := range t.Roles {
		name := fold(r.Name)
		if name == "" {
			return errors.New("roles: role with empty name")
		}
		if seen[name] {
			return fmt.Errorf("roles: duplicate role %q", r.Name)
		}
		seen[name] = true
	}
	for _, r := range t.Roles {
		for _, c := range r.Compatible {
			if !seen[fold(c)] {
				return fmt.Errorf("roles: %q lists unknown compatible role %q", r.Name, c)
			}
		}
	}
	// The ladder needs both special roles to exist in the table.
	if !seen[fold(t.CrossFunctional)] {
		return fmt.Errorf("roles: cross_functional role %q is not declared", t.CrossFunctional)
	}
	if !seen[fold(t.Generalist)] {
		return fmt.Errorf("roles: generalist role %q is not declared", t.Generalist)
	}
	return nil
}
