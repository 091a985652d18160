package model

import (
	"math/rand/v2"
	"time"
)

// Code is a single clinical code in some code system (SNOMED-CT, RxNorm, ...).
type Code struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display,omitempty"`
}

// Provider is the facility an encounter took place at.
type Provider struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	State          string `json:"state"`
	CMSProviderNum string `json:"cms_provider_num"`
	NPI            string `json:"npi"`
}

// Clinician is the attending clinician of an encounter.
type Clinician struct {
	ID  string `json:"id"`
	NPI string `json:"npi"`
}

// Condition is a diagnosis on the patient's record. A zero Stop means the
// condition was still active at the end of the simulation.
type Condition struct {
	Codes []Code    `json:"codes"`
	Start time.Time `json:"start"`
	Stop  time.Time `json:"stop,omitzero"`
}

// ActiveAt reports whether the condition was present at t.
func (c Condition) ActiveAt(t time.Time) bool {
	if c.Start.After(t) {
		return false
	}
	return c.Stop.IsZero() || !c.Stop.Before(t)
}

// CoveragePeriod records which plan insured the patient over [Start, Stop].
// A zero Stop means open-ended.
type CoveragePeriod struct {
	PlanID string    `json:"plan_id"`
	Start  time.Time `json:"start"`
	Stop   time.Time `json:"stop,omitzero"`
}

// Covers reports whether the period includes t.
func (c CoveragePeriod) Covers(t time.Time) bool {
	if t.Before(c.Start) {
		return false
	}
	return c.Stop.IsZero() || !t.After(c.Stop)
}

// Patient is one simulated person's clinical history, encounters ordered by time.
type Patient struct {
	ID         string           `json:"id"`
	BeneID     string           `json:"bene_id"`
	Seed       uint64           `json:"seed"`
	DeathTime  *time.Time       `json:"death_time,omitempty"`
	Coverage   []CoveragePeriod `json:"coverage"`
	Conditions []Condition      `json:"conditions"`
	Encounters []Encounter      `json:"encounters"`

	rng *rand.Rand
}

// Alive reports whether the patient was still alive at t.
func (p *Patient) Alive(t time.Time) bool {
	return p.DeathTime == nil || p.DeathTime.After(t)
}

// Rand returns the patient's seeded random source. Mapping choices made through
// it are reproducible for a given seed as long as the calls happen in the same
// order. Not safe for concurrent use; a patient is exported by one goroutine.
func (p *Patient) Rand() *rand.Rand {
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	}
	return p.rng
}

// ActiveConditions returns the conditions present at t in record order.
func (p *Patient) ActiveConditions(t time.Time) []Condition {
	var out []Condition
	for _, c := range p.Conditions {
		if c.ActiveAt(t) {
			out = append(out, c)
		}
	}
	return out
}
