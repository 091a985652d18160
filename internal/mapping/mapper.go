// Package mapping translates internal clinical codes into the external code
// systems used on claim records (ICD-10, MS-DRG, HCPCS, SSA state codes).
package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/normalize"
)

// Mapper is the code mapping contract used by the exporter.
type Mapper interface {
	// CanMap reports whether code has at least one target.
	CanMap(code string) bool
	// Map returns the target for code. With allowFallback set and several
	// targets available, one is drawn from the patient's random source by
	// weight; otherwise the first target is returned. Map returns "" when
	// CanMap is false.
	Map(code string, p *model.Patient, allowFallback bool) string
}

// Target is one mapping option for a source code.
type Target struct {
	Code        string  `yaml:"code"`
	Description string  `yaml:"description,omitempty"`
	Weight      float64 `yaml:"weight,omitempty"`
}

// Table is a Mapper backed by an in-memory lookup table. Source keys and target
// codes are normalized (uppercased, punctuation stripped) on load.
type Table struct {
	name    string
	entries map[string][]Target
}

// NewTable builds a Table from source code → targets. Sources without targets
// are dropped.
func NewTable(name string, entries map[string][]Target) *Table {
	t := &Table{name: name, entries: make(map[string][]Target, len(entries))}
	for src, targets := range entries {
		key := normalizeKey(src)
		if key == "" {
			continue
		}
		for _, tg := range targets {
			code := normalizeKey(tg.Code)
			if code == "" {
				continue
			}
			tg.Code = code
			t.entries[key] = append(t.entries[key], tg)
		}
	}
	return t
}

// LoadTable reads a mapping file. The file is YAML or JSON of the form
// {"<source code>": [{"code": "...", "description": "...", "weight": 1}]}.
func LoadTable(name, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s mapping: %w", name, err)
	}
	var raw map[string][]Target
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s mapping: %w", name, err)
	}
	return NewTable(name, raw), nil
}

// Name returns the table's name for logging.
func (t *Table) Name() string { return t.name }

// Len returns the number of mappable source codes.
func (t *Table) Len() int { return len(t.entries) }

func (t *Table) CanMap(code string) bool {
	_, ok := t.entries[normalizeKey(code)]
	return ok
}

func (t *Table) Map(code string, p *model.Patient, allowFallback bool) string {
	targets := t.entries[normalizeKey(code)]
	switch {
	case len(targets) == 0:
		return ""
	case len(targets) == 1 || !allowFallback || p == nil:
		return targets[0].Code
	}
	return pickWeighted(targets, p.Rand().Float64())
}

// pickWeighted selects a target with probability proportional to its weight.
// Unweighted targets count as weight 1.
func pickWeighted(targets []Target, draw float64) string {
	var total float64
	for _, tg := range targets {
		total += weightOf(tg)
	}
	cut := draw * total
	for _, tg := range targets {
		cut -= weightOf(tg)
		if cut < 0 {
			return tg.Code
		}
	}
	return targets[len(targets)-1].Code
}

func weightOf(tg Target) float64 {
	if tg.Weight <= 0 {
		return 1
	}
	return tg.Weight
}

func normalizeKey(s string) string {
	return normalize.Code(s)
}
