package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EncounterClass is the setting an encounter took place in.
type EncounterClass string

const (
	ClassAmbulatory EncounterClass = "ambulatory"
	ClassEmergency  EncounterClass = "emergency"
	ClassInpatient  EncounterClass = "inpatient"
	ClassOutpatient EncounterClass = "outpatient"
	ClassWellness   EncounterClass = "wellness"
	ClassUrgentCare EncounterClass = "urgentcare"
	ClassSNF        EncounterClass = "snf"
	ClassHome       EncounterClass = "home"
	ClassHospice    EncounterClass = "hospice"
)

// Encounter is one clinical visit and the claim billed for it.
type Encounter struct {
	Start       time.Time      `json:"start"`
	Stop        time.Time      `json:"stop"`
	Ended       bool           `json:"ended"`
	Class       EncounterClass `json:"class"`
	Provider    Provider       `json:"provider"`
	Clinician   Clinician      `json:"clinician"`
	Reason      *Code          `json:"reason,omitempty"`
	Procedures  []Procedure    `json:"procedures"`
	Medications []Medication   `json:"medications"`
	Devices     []Code         `json:"devices,omitempty"`
	Claim       Claim          `json:"claim"`
}

// Emergency reports whether the encounter started in the emergency department.
func (e *Encounter) Emergency() bool {
	return e.Class == ClassEmergency
}

// Entry is a clinical item that can be billed on a claim line. It is either a
// *Procedure or a *Medication.
type Entry interface {
	EntryCodes() []Code
	entryKind() string
}

// Procedure is a procedure performed during an encounter.
type Procedure struct {
	Codes []Code    `json:"codes"`
	Start time.Time `json:"start"`
	Stop  time.Time `json:"stop,omitzero"`
}

func (p *Procedure) EntryCodes() []Code { return p.Codes }
func (p *Procedure) entryKind() string  { return "procedure" }

// Medication is a prescription or, when Administration is set, a dose given
// by staff during the encounter.
type Medication struct {
	Codes          []Code    `json:"codes"`
	Start          time.Time `json:"start"`
	Stop           time.Time `json:"stop,omitzero"`
	Administration bool      `json:"administration"`
}

func (m *Medication) EntryCodes() []Code { return m.Codes }
func (m *Medication) entryKind() string  { return "medication" }

// Claim is the cost-shared bill for one encounter.
type Claim struct {
	PlanID               string          `json:"plan_id"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalCoveredCost     decimal.Decimal `json:"total_covered_cost"`
	TotalPatientCost     decimal.Decimal `json:"total_patient_cost"`
	TotalDeductiblePaid  decimal.Decimal `json:"total_deductible_paid"`
	TotalCoinsurancePaid decimal.Decimal `json:"total_coinsurance_paid"`
	Items                []ClaimEntry    `json:"items"`
}

// ClaimEntry is one billable item of a claim and its cost split.
type ClaimEntry struct {
	Entry          Entry
	Cost           decimal.Decimal
	CopayPaid      decimal.Decimal
	DeductiblePaid decimal.Decimal
	OutOfPocket    decimal.Decimal
}

// claimEntryJSON is the on-disk form of a ClaimEntry; Kind selects the variant.
type claimEntryJSON struct {
	Kind           string          `json:"kind"`
	Codes          []Code          `json:"codes"`
	Start          time.Time       `json:"start"`
	Stop           time.Time       `json:"stop,omitzero"`
	Administration bool            `json:"administration,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	CopayPaid      decimal.Decimal `json:"copay"`
	DeductiblePaid decimal.Decimal `json:"deductible"`
	OutOfPocket    decimal.Decimal `json:"out_of_pocket"`
}

func (c *ClaimEntry) UnmarshalJSON(data []byte) error {
	var raw claimEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "procedure":
		c.Entry = &Procedure{Codes: raw.Codes, Start: raw.Start, Stop: raw.Stop}
	case "medication":
		c.Entry = &Medication{Codes: raw.Codes, Start: raw.Start, Stop: raw.Stop, Administration: raw.Administration}
	default:
		return fmt.Errorf("unknown claim entry kind %q", raw.Kind)
	}
	c.Cost = raw.Cost
	c.CopayPaid = raw.CopayPaid
	c.DeductiblePaid = raw.DeductiblePaid
	c.OutOfPocket = raw.OutOfPocket
	return nil
}

func (c ClaimEntry) MarshalJSON() ([]byte, error) {
	raw := claimEntryJSON{
		Cost:           c.Cost,
		CopayPaid:      c.CopayPaid,
		DeductiblePaid: c.DeductiblePaid,
		OutOfPocket:    c.OutOfPocket,
	}
	switch e := c.Entry.(type) {
	case *Procedure:
		raw.Kind, raw.Codes, raw.Start, raw.Stop = e.entryKind(), e.Codes, e.Start, e.Stop
	case *Medication:
		raw.Kind, raw.Codes, raw.Start, raw.Stop = e.entryKind(), e.Codes, e.Start, e.Stop
		raw.Administration = e.Administration
	default:
		return nil, fmt.Errorf("unsupported claim entry %T", c.Entry)
	}
	return json.Marshal(raw)
}
