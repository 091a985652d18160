// Package inpatient converts a patient's encounters into inpatient claim
// records: one header per eligible encounter fanned out into one row per
// billable line item.
package inpatient

import (
	"time"

	"github.com/gyeh/rifexport/internal/coverage"
	"github.com/gyeh/rifexport/internal/model"
)

// DefaultAdmissionThreshold is how long an emergency visit must last before it
// is billed as an inpatient admission.
const DefaultAdmissionThreshold = 24 * time.Hour

// ClaimTypes returns the claim types an encounter bills under.
func ClaimTypes(e *model.Encounter, admissionThreshold time.Duration) model.ClaimTypeSet {
	set := make(model.ClaimTypeSet)
	switch e.Class {
	case model.ClassInpatient:
		set.Add(model.ClaimInpatient)
	case model.ClassEmergency:
		set.Add(model.ClaimOutpatient)
		if e.Stop.Sub(e.Start) >= admissionThreshold {
			set.Add(model.ClaimInpatient)
		}
	case model.ClassSNF:
		set.Add(model.ClaimSNF)
	case model.ClassHome:
		set.Add(model.ClaimHHA)
	case model.ClassHospice:
		set.Add(model.ClaimHospice)
	default:
		set.Add(model.ClaimOutpatient)
		set.Add(model.ClaimCarrier)
	}
	if len(e.Medications) > 0 {
		set.Add(model.ClaimPDE)
	}
	if len(e.Devices) > 0 {
		set.Add(model.ClaimDME)
	}
	return set
}

// AdmissionHistory carries what the admission type of the next inpatient
// claim depends on across one patient's encounter traversal. The zero value
// is the start of a traversal.
type AdmissionHistory struct {
	previousEmergency bool
}

// PreviousEmergency reports whether the last exported inpatient encounter was
// an emergency admission.
func (h *AdmissionHistory) PreviousEmergency() bool { return h.previousEmergency }

// Reset forgets the previous emergency. Called for every encounter that is
// not an inpatient claim.
func (h *AdmissionHistory) Reset() { h.previousEmergency = false }

// Exported records an exported encounter.
func (h *AdmissionHistory) Exported(e *model.Encounter) { h.previousEmergency = e.Emergency() }

// Filter selects the encounters that produce claims of one claim type.
type Filter struct {
	// ClaimType is the type an encounter must bill under. The zero value means
	// model.ClaimInpatient.
	ClaimType model.ClaimType
	// Start is the earliest exportable stop time.
	Start time.Time
	// Cutoff is the global claim cutoff. The zero time disables it.
	Cutoff             time.Time
	Coverage           coverage.Checker
	AdmissionThreshold time.Duration
}

// Eligible reports whether e is exported as a claim of f's type. It resets h
// when e does not bill under that type; encounters outside the date range or
// without coverage leave h untouched.
func (f *Filter) Eligible(p *model.Patient, e *model.Encounter, h *AdmissionHistory) bool {
	if e.Stop.Before(f.Start) || (!f.Cutoff.IsZero() && e.Stop.Before(f.Cutoff)) {
		return false
	}
	if f.Coverage != nil && !f.Coverage.HasEligibleCoverage(p, e.Stop) {
		return false
	}
	threshold := f.AdmissionThreshold
	if threshold <= 0 {
		threshold = DefaultAdmissionThreshold
	}
	ct := f.ClaimType
	if ct == (model.ClaimType{}) {
		ct = model.ClaimInpatient
	}
	if !ClaimTypes(e, threshold).Contains(ct) {
		h.Reset()
		return false
	}
	return true
}
