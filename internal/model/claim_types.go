package model

// ClaimType is one of the CMS claim record families an encounter can bill under.
type ClaimType struct {
	Name       string // e.g. "INPATIENT"
	RecordType string // output table/file name, e.g. "inpatient"
}

var (
	ClaimInpatient  = ClaimType{Name: "INPATIENT", RecordType: "inpatient"}
	ClaimOutpatient = ClaimType{Name: "OUTPATIENT", RecordType: "outpatient"}
	ClaimCarrier    = ClaimType{Name: "CARRIER", RecordType: "carrier"}
	ClaimDME        = ClaimType{Name: "DME", RecordType: "dme"}
	ClaimHHA        = ClaimType{Name: "HHA", RecordType: "hha"}
	ClaimHospice    = ClaimType{Name: "HOSPICE", RecordType: "hospice"}
	ClaimSNF        = ClaimType{Name: "SNF", RecordType: "snf"}
	ClaimPDE        = ClaimType{Name: "PDE", RecordType: "pde"}
)

// AllClaimTypes lists the claim types in canonical order.
var AllClaimTypes = []ClaimType{
	ClaimInpatient,
	ClaimOutpatient,
	ClaimCarrier,
	ClaimDME,
	ClaimHHA,
	ClaimHospice,
	ClaimSNF,
	ClaimPDE,
}

// ClaimTypeByName returns the ClaimType for the given name, or ok=false.
func ClaimTypeByName(name string) (ClaimType, bool) {
	for _, ct := range AllClaimTypes {
		if ct.Name == name {
			return ct, true
		}
	}
	return ClaimType{}, false
}

// ClaimTypeSet is the set of claim types a single encounter bills under.
type ClaimTypeSet map[ClaimType]struct{}

// Add inserts ct into the set.
func (s ClaimTypeSet) Add(ct ClaimType) { s[ct] = struct{}{} }

// Contains reports whether ct is in the set.
func (s ClaimTypeSet) Contains(ct ClaimType) bool {
	_, ok := s[ct]
	return ok
}
