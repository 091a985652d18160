package mapping

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/ssa_states.yaml
var ssaStates []byte

// Paths locates the mapping files. An empty path yields an empty table, except
// Procedures, which falls back to the condition table, and States, which falls
// back to the built-in SSA state code table.
type Paths struct {
	Conditions string `yaml:"conditions"`
	Procedures string `yaml:"procedures"`
	DRG        string `yaml:"drg"`
	HCPCS      string `yaml:"hcpcs"`
	External   string `yaml:"external"`
	States     string `yaml:"states"`
}

// Set is every mapper the inpatient exporter consults.
type Set struct {
	Conditions Mapper // clinical condition → ICD-10-CM diagnosis
	Procedures Mapper // clinical procedure → ICD procedure code
	DRG        Mapper // ICD-10-CM principal diagnosis → MS-DRG
	HCPCS      Mapper // clinical procedure → HCPCS billing code
	External   Mapper // ICD-10-CM diagnosis → external cause of injury code
	States     Mapper // provider state → SSA state code
}

// Load reads every configured table.
func Load(p Paths) (*Set, error) {
	load := func(name, path string) (*Table, error) {
		if path == "" {
			return NewTable(name, nil), nil
		}
		return LoadTable(name, path)
	}

	conditions, err := load("conditions", p.Conditions)
	if err != nil {
		return nil, err
	}
	set := &Set{Conditions: conditions, Procedures: conditions}
	if p.Procedures != "" {
		if set.Procedures, err = LoadTable("procedures", p.Procedures); err != nil {
			return nil, err
		}
	}
	if set.DRG, err = load("drg", p.DRG); err != nil {
		return nil, err
	}
	if set.HCPCS, err = load("hcpcs", p.HCPCS); err != nil {
		return nil, err
	}
	if set.External, err = load("external", p.External); err != nil {
		return nil, err
	}
	if p.States != "" {
		set.States, err = LoadTable("states", p.States)
	} else {
		set.States, err = DefaultStates()
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Sizes returns the number of mappable source codes per role of the set.
// Roles whose mapper is not a table are left out.
func (s *Set) Sizes() map[string]int {
	out := make(map[string]int)
	for role, m := range map[string]Mapper{
		"conditions": s.Conditions,
		"procedures": s.Procedures,
		"drg":        s.DRG,
		"hcpcs":      s.HCPCS,
		"external":   s.External,
		"states":     s.States,
	} {
		if t, ok := m.(*Table); ok {
			out[role] = t.Len()
		}
	}
	return out
}

// SizeOrder is the order mapping roles are reported in.
var SizeOrder = []string{"conditions", "procedures", "drg", "hcpcs", "external", "states"}

// DefaultStates returns the built-in state abbreviation → SSA state code table.
func DefaultStates() (*Table, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(ssaStates, &raw); err != nil {
		return nil, fmt.Errorf("parse built-in state codes: %w", err)
	}
	entries := make(map[string][]Target, len(raw))
	for state, code := range raw {
		entries[state] = []Target{{Code: code}}
	}
	return NewTable("states", entries), nil
}
