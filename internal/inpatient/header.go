package inpatient

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rifexport/internal/coverage"
	"github.com/gyeh/rifexport/internal/ids"
	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/normalize"
	"github.com/gyeh/rifexport/internal/rif"
)

// Patient discharge status (PTNT_DSCHRG_STUS_CD) and patient status indicator
// (NCH_PTNT_STATUS_IND_CD) codes.
const (
	DischargeHome     = "1"
	DischargeTransfer = "2" // never produced; no transfer detection exists
	DischargeDied     = "20"
	DischargeStillIn  = "30"

	StatusDischarged = "A"
	StatusDied       = "B"
	StatusCurrent    = "C"
)

// Admission type codes (CLM_IP_ADMSN_TYPE_CD).
const (
	AdmissionEmergency = "1"
	AdmissionUrgent    = "2"
	AdmissionElective  = "3"
)

// Outlier stay codes (CLM_DRG_OUTLIER_STAY_CD).
const (
	OutlierNone         = "0"
	OutlierLengthOfStay = "1"
	OutlierCost         = "2"
)

const (
	// RevenueCenterEmergency is the emergency room revenue center.
	RevenueCenterEmergency = "0450"
	// CoinsuranceFreeDays is the number of inpatient days before daily
	// coinsurance applies; longer stays are also length-of-stay outliers.
	CoinsuranceFreeDays = 60
	providerNumWidth    = 6
)

// HighCostThreshold is the total claim cost above which a stay is a cost
// outlier.
var HighCostThreshold = decimal.NewFromInt(100_000)

// Header is the claim-level part of a record, shared by every line row.
type Header struct {
	Record *rif.Record
	IDs    ids.ClaimIDs
	// Days is the whole-day length of stay.
	Days int
}

// HeaderBuilder computes claim header fields.
type HeaderBuilder struct {
	Static rif.StaticFields
	// PrimaryGovernmentPlan is the plan whose claims report no primary payer
	// payment.
	PrimaryGovernmentPlan string
	States                mapping.Mapper
}

// Build fills a new header record for e. h supplies the previous admission;
// it is not updated here.
func (b *HeaderBuilder) Build(p *model.Patient, e *model.Encounter, claimIDs ids.ClaimIDs, h *AdmissionHistory) (*Header, error) {
	r := rif.Inpatient.NewRecord()
	if err := b.Static.Apply(r, p.Rand()); err != nil {
		return nil, fmt.Errorf("apply static fields: %w", err)
	}

	claim := &e.Claim
	setPresent(r, rif.BeneID, p.BeneID)
	r.Set(rif.ClmID, strconv.FormatInt(claimIDs.ClaimID, 10))
	r.Set(rif.ClmGrpID, strconv.FormatInt(claimIDs.ClaimGroupID, 10))
	r.Set(rif.FIDocClmCntlNum, strconv.FormatInt(claimIDs.FIDocID, 10))

	r.Set(rif.ClmFromDt, rif.Date(e.Start))
	r.Set(rif.ClmAdmsnDt, rif.Date(e.Start))
	r.Set(rif.ClmThruDt, rif.Date(e.Stop))
	r.Set(rif.NchBeneDschrgDt, rif.Date(e.Stop))
	// Dates are written in UTC, so the weekday must be taken there too.
	r.Set(rif.NchWklyProcDt, rif.Date(normalize.NextWeekday(e.Stop.UTC(), time.Friday)))

	// Missing identifiers stay unset so the rows fail validation.
	setPresent(r, rif.PrvdrNum, truncate(e.Provider.CMSProviderNum, providerNumWidth))
	setPresent(r, rif.AtPhysnNPI, e.Clinician.NPI)
	setPresent(r, rif.OpPhysnNPI, e.Clinician.NPI)
	setPresent(r, rif.RndrngPhysnNPI, e.Clinician.NPI)
	setPresent(r, rif.OrgNPINum, e.Provider.NPI)
	if b.States != nil && b.States.CanMap(e.Provider.State) {
		r.Set(rif.PrvdrStateCd, b.States.Map(e.Provider.State, p, false))
	}

	r.Set(rif.ClmPmtAmt, rif.Money(claim.TotalCost))
	r.Set(rif.ClmTotChrgAmt, rif.Money(claim.TotalCost))
	if coverage.SamePlan(claim.PlanID, b.PrimaryGovernmentPlan) {
		r.Set(rif.NchPrmryPyrClmPdAmt, rif.Money(decimal.Zero))
	} else {
		r.Set(rif.NchPrmryPyrClmPdAmt, rif.Money(claim.TotalCoveredCost))
	}

	discharge, status := DischargeStatus(p, e)
	r.Set(rif.PtntDschrgStusCd, discharge)
	r.Set(rif.NchPtntStatusIndCd, status)

	emergency := e.Emergency()
	r.Set(rif.ClmIPAdmsnTypeCd, AdmissionType(emergency, h.PreviousEmergency()))
	if emergency {
		r.Set(rif.RevCntr, RevenueCenterEmergency)
	}

	r.Set(rif.NchBeneIPDdctblAmt, rif.Money(claim.TotalDeductiblePaid))
	r.Set(rif.NchBenePtaCoinsrncLbltyAm, rif.Money(claim.TotalCoinsurancePaid))
	r.Set(rif.NchIPNcvrdChrgAmt, rif.Money(claim.TotalPatientCost))
	r.Set(rif.NchIPTotDdctnAmt, rif.Money(claim.TotalPatientCost))

	days := normalize.WholeDays(e.Start, e.Stop)
	r.Set(rif.ClmUtlztnDayCnt, strconv.Itoa(days))
	r.Set(rif.BeneTotCoinsrncDaysCnt, strconv.Itoa(CoinsuranceDays(days)))
	r.Set(rif.ClmDrgOutlierStayCd, OutlierCode(days, claim.TotalCost))

	// Overwritten per line when line rows are emitted.
	r.Set(rif.RevCntrTotChrgAmt, rif.Money(claim.TotalCoveredCost))
	r.Set(rif.RevCntrNcvrdChrgAmt, rif.Money(claim.TotalPatientCost))

	return &Header{Record: r, IDs: claimIDs, Days: days}, nil
}

// DischargeStatus returns the discharge status and patient status indicator.
// Death takes priority over an unfinished encounter.
func DischargeStatus(p *model.Patient, e *model.Encounter) (discharge, status string) {
	switch {
	case !p.Alive(e.Stop):
		return DischargeDied, StatusDied
	case !e.Ended:
		return DischargeStillIn, StatusCurrent
	default:
		return DischargeHome, StatusDischarged
	}
}

// AdmissionType returns the admission type code. An admission following an
// emergency admission is urgent.
func AdmissionType(emergency, previousEmergency bool) string {
	switch {
	case emergency:
		return AdmissionEmergency
	case previousEmergency:
		return AdmissionUrgent
	default:
		return AdmissionElective
	}
}

// CoinsuranceDays returns the days of a stay subject to daily coinsurance.
func CoinsuranceDays(days int) int {
	return max(0, days-CoinsuranceFreeDays)
}

// OutlierCode classifies a stay. Length of stay is checked before cost.
func OutlierCode(days int, totalCost decimal.Decimal) string {
	switch {
	case days > CoinsuranceFreeDays:
		return OutlierLengthOfStay
	case totalCost.GreaterThan(HighCostThreshold):
		return OutlierCost
	default:
		return OutlierNone
	}
}

func setPresent(r *rif.Record, f rif.Field, v string) {
	if v != "" {
		r.Set(f, v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
