package inpatient

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/normalize"
	"github.com/gyeh/rifexport/internal/rif"
)

const (
	// HCPCSMedicationAdministration bills a dose given by staff.
	HCPCSMedicationAdministration = "T1502"
	// HCPCSInpatientVisit bills a claim with no billable line items.
	HCPCSInpatientVisit = "99221"
	// RevenueCenterPharmacy is the general pharmacy revenue center.
	RevenueCenterPharmacy = "0250"

	ndcQtyOneUnit  = "1"
	ndcQtyUnitCode = "UN"
)

// Deductible and coinsurance liability codes (REV_CNTR_DDCTBL_COINSRNC_CD).
const (
	LiableForBoth    = "0"
	NoDeductible     = "1"
	NoCoinsurance    = "2"
	LiableForNeither = "3"
)

// lineBilling is what one claim entry puts on its line row.
type lineBilling struct {
	hcpcs string
	// pharmacy marks a medication administration line, which overrides the
	// revenue center and carries an NDC quantity.
	pharmacy bool
}

// LineEmitter computes the line rows of a claim.
type LineEmitter struct {
	HCPCS mapping.Mapper
}

// Rows returns every row of the claim in line order: one per billable entry,
// or a single fallback row when none is billable. All rows are validated, so
// a returned slice can be written without further checks.
func (l *LineEmitter) Rows(p *model.Patient, e *model.Encounter, h *Header) ([]*rif.Record, error) {
	var rows []*rif.Record
	unitCount := max(1, h.Days)

	for i := range e.Claim.Items {
		item := &e.Claim.Items[i]
		bill, ok := l.bill(p, item.Entry)
		if !ok {
			continue
		}

		r := h.Record.Clone()
		if bill.pharmacy {
			r.Set(rif.RevCntr, RevenueCenterPharmacy)
			r.Set(rif.RevCntrNDCQty, ndcQtyOneUnit)
			r.Set(rif.RevCntrNDCQtyQlfrCd, ndcQtyUnitCode)
		} else {
			r.Clear(rif.RevCntrNDCQty)
			r.Clear(rif.RevCntrNDCQtyQlfrCd)
		}
		r.Set(rif.ClmLineNum, strconv.Itoa(len(rows)+1))
		r.Set(rif.HcpcsCd, bill.hcpcs)
		r.Set(rif.RevCntrUnitCnt, strconv.Itoa(unitCount))
		r.Set(rif.RevCntrRateAmt, rif.Money(normalize.PerDiem(item.Cost, h.Days)))
		r.Set(rif.RevCntrTotChrgAmt, rif.Money(item.Cost))
		r.Set(rif.RevCntrNcvrdChrgAmt, rif.Money(item.CopayPaid.Add(item.DeductiblePaid).Add(item.OutOfPocket)))
		r.Set(rif.RevCntrDdctblCoinsrncCd, DeductibleCoinsuranceCode(item.OutOfPocket, item.DeductiblePaid))
		rows = append(rows, r)
	}

	if len(rows) == 0 {
		r := h.Record.Clone()
		r.Set(rif.ClmLineNum, "1")
		r.Set(rif.HcpcsCd, HCPCSInpatientVisit)
		rows = append(rows, r)
	}

	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("claim %d line %s: %w", h.IDs.ClaimID, r.Value(rif.ClmLineNum), err)
		}
	}
	return rows, nil
}

// bill derives the billing code of a claim entry. Procedures bill their first
// mappable HCPCS code; medications bill only when administered.
func (l *LineEmitter) bill(p *model.Patient, entry model.Entry) (lineBilling, bool) {
	switch e := entry.(type) {
	case *model.Procedure:
		code, ok := firstMapped(l.HCPCS, e.Codes, p)
		return lineBilling{hcpcs: code}, ok
	case *model.Medication:
		if e.Administration {
			return lineBilling{hcpcs: HCPCSMedicationAdministration, pharmacy: true}, true
		}
	}
	return lineBilling{}, false
}

// DeductibleCoinsuranceCode classifies a line's patient liability from the
// out-of-pocket and deductible amounts paid.
func DeductibleCoinsuranceCode(outOfPocket, deductible decimal.Decimal) string {
	switch {
	case outOfPocket.IsZero() && deductible.IsZero():
		return LiableForNeither
	case normalize.Positive(outOfPocket) && normalize.Positive(deductible):
		return LiableForBoth
	case outOfPocket.IsZero():
		return NoDeductible
	default:
		return NoCoinsurance
	}
}
