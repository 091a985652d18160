package inpatient

import (
	"slices"
	"time"

	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/rif"
)

const (
	// icd10 is the code version tag of every diagnosis and procedure slot.
	icd10 = "0"

	poaYes = "Y"
	poaNo  = "N"
)

// DiagnosisMapper fills the diagnosis, procedure, DRG and external cause
// columns of a header.
type DiagnosisMapper struct {
	Mappings *mapping.Set
}

// Coding is what DiagnosisMapper found for one encounter.
type Coding struct {
	Reason     string
	Diagnoses  []string
	Procedures []string
}

// Empty reports whether the encounter has nothing to bill a claim for.
func (c Coding) Empty() bool {
	return c.Reason == "" && len(c.Diagnoses) == 0 && len(c.Procedures) == 0
}

// Apply maps the encounter's clinical codes into r. Unmappable codes are
// skipped. The caller drops the encounter when the returned Coding is Empty.
func (m *DiagnosisMapper) Apply(p *model.Patient, e *model.Encounter, r *rif.Record) Coding {
	var c Coding
	conditions := m.Mappings.Conditions

	if e.Reason != nil && conditions.CanMap(e.Reason.Code) {
		c.Reason = conditions.Map(e.Reason.Code, p, true)
		r.Set(rif.PrncpalDgnsCd, c.Reason)
		r.Set(rif.AdmtgDgnsCd, c.Reason)
	}

	// Admission codes are mapped first so random fallbacks are drawn in a
	// fixed order.
	atAdmission := m.diagnosisCodes(p, e.Start)
	c.Diagnoses = m.diagnosisCodes(p, e.Stop)
	for i, code := range c.Diagnoses[:min(len(c.Diagnoses), len(rif.InpatientDiagnoses))] {
		slot := rif.InpatientDiagnoses[i]
		r.Set(slot.Code, code)
		r.Set(slot.Version, icd10)
		r.Set(slot.POA, presentOnAdmission(atAdmission, code))
	}
	if len(c.Diagnoses) > 0 && !r.Has(rif.PrncpalDgnsCd) {
		r.Set(rif.PrncpalDgnsCd, c.Diagnoses[0])
	}

	if principal, ok := r.Get(rif.PrncpalDgnsCd); ok {
		m.classify(p, r, principal, atAdmission)
	}

	c.Procedures = m.procedures(p, e, r)
	return c
}

// classify derives the DRG and external cause codes from the principal
// diagnosis.
func (m *DiagnosisMapper) classify(p *model.Patient, r *rif.Record, principal string, atAdmission []string) {
	if m.Mappings.DRG.CanMap(principal) {
		r.Set(rif.ClmDrgCd, m.Mappings.DRG.Map(principal, p, false))
	}
	external := m.Mappings.External
	if !external.CanMap(principal) {
		return
	}
	for _, slot := range rif.InpatientExternalCauses {
		r.Set(slot.Code, external.Map(principal, p, true))
		r.Set(slot.Version, icd10)
		if slot.HasPOA {
			r.Set(slot.POA, presentOnAdmission(atAdmission, principal))
		}
	}
}

func (m *DiagnosisMapper) procedures(p *model.Patient, e *model.Encounter, r *rif.Record) []string {
	var codes []string
	var dates []time.Time
	for i := range e.Procedures {
		proc := &e.Procedures[i]
		if code, ok := firstMapped(m.Mappings.Procedures, proc.Codes, p); ok {
			codes = append(codes, code)
			dates = append(dates, proc.Start)
		}
	}
	for i := range min(len(codes), len(rif.InpatientProcedures)) {
		slot := rif.InpatientProcedures[i]
		r.Set(slot.Code, codes[i])
		r.Set(slot.Version, icd10)
		r.Set(slot.Date, rif.Date(dates[i]))
	}
	return codes
}

// diagnosisCodes maps the first code of every condition active at t, dropping
// duplicates.
func (m *DiagnosisMapper) diagnosisCodes(p *model.Patient, t time.Time) []string {
	var out []string
	for _, cond := range p.ActiveConditions(t) {
		if len(cond.Codes) == 0 || !m.Mappings.Conditions.CanMap(cond.Codes[0].Code) {
			continue
		}
		code := m.Mappings.Conditions.Map(cond.Codes[0].Code, p, true)
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out
}

// firstMapped maps the first mappable code of codes.
func firstMapped(mapper mapping.Mapper, codes []model.Code, p *model.Patient) (string, bool) {
	for _, code := range codes {
		if mapper.CanMap(code.Code) {
			return mapper.Map(code.Code, p, true), true
		}
	}
	return "", false
}

func presentOnAdmission(atAdmission []string, code string) string {
	if slices.Contains(atAdmission, code) {
		return poaYes
	}
	return poaNo
}
