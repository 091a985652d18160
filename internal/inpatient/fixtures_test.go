package inpatient

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rifexport/internal/coverage"
	"github.com/gyeh/rifexport/internal/ids"
	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/sink"
)

// t0 is a Monday.
var t0 = time.Date(2020, time.March, 2, 8, 0, 0, 0, time.UTC)

const (
	snomedDiabetes       = "44054006"
	snomedHypertension   = "38341003"
	snomedHyperlipidemia = "55822004"
	snomedAppendicitis   = "74400008"
	snomedAppendectomy   = "80146002"
	snomedUnmapped       = "999999999"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func testMappings(t *testing.T) *mapping.Set {
	t.Helper()
	conditions := mapping.NewTable("conditions", map[string][]mapping.Target{
		snomedDiabetes:       {{Code: "E11.9"}},
		snomedHypertension:   {{Code: "I10"}},
		snomedHyperlipidemia: {{Code: "E78.5"}},
		snomedAppendicitis:   {{Code: "K35.80"}},
		snomedAppendectomy:   {{Code: "0DTJ4ZZ"}},
	})
	states, err := mapping.DefaultStates()
	if err != nil {
		t.Fatalf("default states: %v", err)
	}
	return &mapping.Set{
		Conditions: conditions,
		Procedures: conditions,
		DRG:        mapping.NewTable("drg", map[string][]mapping.Target{"K3580": {{Code: "343"}}}),
		HCPCS:      mapping.NewTable("hcpcs", map[string][]mapping.Target{snomedAppendectomy: {{Code: "44970"}}}),
		External:   mapping.NewTable("external", map[string][]mapping.Target{"K3580": {{Code: "W01.0"}}}),
		States:     states,
	}
}

func testPatient(opts ...func(*model.Patient)) *model.Patient {
	p := &model.Patient{
		ID:     "patient-1",
		BeneID: "-1000",
		Seed:   42,
		Coverage: []model.CoveragePeriod{
			{PlanID: "Medicare", Start: t0.AddDate(-5, 0, 0)},
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func withEncounters(es ...model.Encounter) func(*model.Patient) {
	return func(p *model.Patient) { p.Encounters = append(p.Encounters, es...) }
}

func withCondition(code string, start time.Time) func(*model.Patient) {
	return func(p *model.Patient) {
		p.Conditions = append(p.Conditions, model.Condition{
			Codes: []model.Code{{System: "SNOMED-CT", Code: code}},
			Start: start,
		})
	}
}

// inpatientStay builds an ended inpatient encounter with an appendicitis
// reason and a small Medicare claim without line items.
func inpatientStay(start time.Time, length time.Duration, opts ...func(*model.Encounter)) model.Encounter {
	e := model.Encounter{
		Start: start,
		Stop:  start.Add(length),
		Ended: true,
		Class: model.ClassInpatient,
		Provider: model.Provider{
			ID:             "provider-1",
			Name:           "General Hospital",
			State:          "MA",
			CMSProviderNum: "220071999",
			NPI:            "1234567893",
		},
		Clinician: model.Clinician{ID: "clinician-1", NPI: "9876543210"},
		Reason:    &model.Code{System: "SNOMED-CT", Code: snomedAppendicitis},
		Claim: model.Claim{
			PlanID:               "Medicare",
			TotalCost:            dec("5000.00"),
			TotalCoveredCost:     dec("4000.00"),
			TotalPatientCost:     dec("1000.00"),
			TotalDeductiblePaid:  dec("800.00"),
			TotalCoinsurancePaid: dec("200.00"),
		},
	}
	for _, o := range opts {
		o(&e)
	}
	return e
}

func withClass(c model.EncounterClass) func(*model.Encounter) {
	return func(e *model.Encounter) { e.Class = c }
}

func withoutReason() func(*model.Encounter) {
	return func(e *model.Encounter) { e.Reason = nil }
}

func withItems(items ...model.ClaimEntry) func(*model.Encounter) {
	return func(e *model.Encounter) { e.Claim.Items = append(e.Claim.Items, items...) }
}

func procedureItem(code, cost, copay, deductible, oop string) model.ClaimEntry {
	return model.ClaimEntry{
		Entry:          &model.Procedure{Codes: []model.Code{{System: "SNOMED-CT", Code: code}}, Start: t0},
		Cost:           dec(cost),
		CopayPaid:      dec(copay),
		DeductiblePaid: dec(deductible),
		OutOfPocket:    dec(oop),
	}
}

func medicationItem(administered bool, cost string) model.ClaimEntry {
	return model.ClaimEntry{
		Entry:          &model.Medication{Codes: []model.Code{{System: "RxNorm", Code: "308182"}}, Start: t0, Administration: administered},
		Cost:           dec(cost),
		CopayPaid:      decimal.Zero,
		DeductiblePaid: decimal.Zero,
		OutOfPocket:    decimal.Zero,
	}
}

func newTestExporter(t *testing.T, issuer *ids.Issuer, opts ...func(*Config)) (*Exporter, *sink.Memory) {
	t.Helper()
	cfg := Config{
		Start:                 t0.AddDate(-10, 0, 0),
		AdmissionThreshold:    DefaultAdmissionThreshold,
		PrimaryGovernmentPlan: "medicare",
	}
	for _, o := range opts {
		o(&cfg)
	}
	mem := sink.NewMemory()
	x, err := New(cfg, issuer, testMappings(t), coverage.NewPlanChecker(nil), sink.New(mem.Open, zerolog.Nop()), zerolog.Nop())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	return x, mem
}
