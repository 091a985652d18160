package rif

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// StaticFields maps column names to constant values applied to every record of a
// layout before any computed field. A value written as "(a,b,c)" is a choice
// list: one element is picked per record with the patient's random source.
type StaticFields map[string]string

// Merge returns a copy of s with the entries of other layered on top.
func (s StaticFields) Merge(other StaticFields) StaticFields {
	out := make(StaticFields, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Check returns an error if any name is not a column of schema.
func (s StaticFields) Check(schema *Schema) error {
	var unknown []string
	for name := range s {
		if _, ok := schema.Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown %s static fields: %s", schema.Name(), strings.Join(unknown, ", "))
	}
	return nil
}

// Apply sets every static value on r. Fields are visited in layout order so the
// random draws for choice lists are reproducible.
func (s StaticFields) Apply(r *Record, rng *rand.Rand) error {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	schema := r.Schema()
	sort.Slice(names, func(i, j int) bool {
		fi, _ := schema.Lookup(names[i])
		fj, _ := schema.Lookup(names[j])
		return fi < fj
	})
	for _, name := range names {
		if err := r.SetByName(name, resolveStatic(s[name], rng)); err != nil {
			return err
		}
	}
	return nil
}

func resolveStatic(v string, rng *rand.Rand) string {
	if len(v) < 2 || v[0] != '(' || v[len(v)-1] != ')' {
		return v
	}
	choices := strings.Split(v[1:len(v)-1], ",")
	if len(choices) == 1 || rng == nil {
		return strings.TrimSpace(choices[0])
	}
	return strings.TrimSpace(choices[rng.IntN(len(choices))])
}
