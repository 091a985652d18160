package rif

import "fmt"

// Slot capacities of the inpatient layout.
const (
	InpatientDiagnosisSlots     = 25
	InpatientProcedureSlots     = 25
	InpatientExternalCauseSlots = 12
)

// DiagnosisSlot is one numbered diagnosis column group.
type DiagnosisSlot struct {
	Code, Version, POA Field
}

// ProcedureSlot is one numbered procedure column group.
type ProcedureSlot struct {
	Code, Version, Date Field
}

// ExternalCauseSlot is an external-cause-of-injury column group. Not every group
// carries a present-on-admission column; HasPOA tells.
type ExternalCauseSlot struct {
	Code, Version Field
	POA           Field
	HasPOA        bool
}

// Inpatient is the inpatient claim layout. Header columns come first, then the
// numbered diagnosis and procedure groups, then the revenue-center line columns.
var Inpatient = NewSchema("inpatient", inpatientColumns())

func inpatientColumns() []Column {
	req := func(names ...string) []Column {
		out := make([]Column, len(names))
		for i, n := range names {
			out[i] = Column{Name: n, Required: true}
		}
		return out
	}
	opt := func(names ...string) []Column {
		out := make([]Column, len(names))
		for i, n := range names {
			out[i] = Column{Name: n}
		}
		return out
	}

	var cols []Column
	cols = append(cols, opt("DML_IND")...)
	cols = append(cols, req("BENE_ID", "CLM_ID", "CLM_GRP_ID")...)
	cols = append(cols, opt("FINAL_ACTION", "NCH_NEAR_LINE_REC_IDENT_CD", "NCH_CLM_TYPE_CD")...)
	cols = append(cols, req("CLM_FROM_DT", "CLM_THRU_DT", "NCH_WKLY_PROC_DT")...)
	cols = append(cols, opt("FI_CLM_PROC_DT", "CLAIM_QUERY_CODE")...)
	cols = append(cols, req("PRVDR_NUM")...)
	cols = append(cols, opt("CLM_FAC_TYPE_CD", "CLM_SRVC_CLSFCTN_TYPE_CD", "CLM_FREQ_CD",
		"FI_NUM", "CLM_MDCR_NON_PMT_RSN_CD")...)
	cols = append(cols, req("CLM_PMT_AMT", "NCH_PRMRY_PYR_CLM_PD_AMT")...)
	cols = append(cols, opt("NCH_PRMRY_PYR_CD", "FI_CLM_ACTN_CD", "PRVDR_STATE_CD")...)
	cols = append(cols, req("ORG_NPI_NUM")...)
	cols = append(cols, opt("AT_PHYSN_UPIN")...)
	cols = append(cols, req("AT_PHYSN_NPI")...)
	cols = append(cols, opt("OP_PHYSN_UPIN")...)
	cols = append(cols, req("OP_PHYSN_NPI")...)
	cols = append(cols, opt("OT_PHYSN_UPIN", "OT_PHYSN_NPI", "CLM_MCO_PD_SW")...)
	cols = append(cols, req("PTNT_DSCHRG_STUS_CD")...)
	cols = append(cols, opt("CLM_PPS_IND_CD")...)
	cols = append(cols, req("CLM_TOT_CHRG_AMT", "CLM_ADMSN_DT", "CLM_IP_ADMSN_TYPE_CD")...)
	cols = append(cols, opt("CLM_SRC_IP_ADMSN_CD")...)
	cols = append(cols, req("NCH_PTNT_STATUS_IND_CD")...)
	cols = append(cols, opt("CLM_PASS_THRU_PER_DIEM_AMT")...)
	cols = append(cols, req("NCH_BENE_IP_DDCTBL_AMT", "NCH_BENE_PTA_COINSRNC_LBLTY_AM")...)
	cols = append(cols, opt("NCH_BENE_BLOOD_DDCTBL_LBLTY_AM", "NCH_PROFNL_CMPNT_CHRG_AMT")...)
	cols = append(cols, req("NCH_IP_NCVRD_CHRG_AMT", "NCH_IP_TOT_DDCTN_AMT")...)
	cols = append(cols, opt("CLM_TOT_PPS_CPTL_AMT", "CLM_PPS_CPTL_FSP_AMT", "CLM_PPS_CPTL_OUTLIER_AMT",
		"CLM_PPS_CPTL_DSPRPRTNT_SHR_AMT", "CLM_PPS_CPTL_IME_AMT", "CLM_PPS_CPTL_EXCPTN_AMT",
		"CLM_PPS_OLD_CPTL_HLD_HRMLS_AMT", "CLM_PPS_CPTL_DRG_WT_NUM")...)
	cols = append(cols, req("CLM_UTLZTN_DAY_CNT", "BENE_TOT_COINSRNC_DAYS_CNT")...)
	cols = append(cols, opt("BENE_LRD_USED_CNT", "CLM_NON_UTLZTN_DAYS_CNT", "NCH_BLOOD_PNTS_FRNSHD_QTY",
		"NCH_VRFD_NCVRD_STAY_FROM_DT", "NCH_VRFD_NCVRD_STAY_THRU_DT", "NCH_ACTV_OR_CVRD_LVL_CARE_THRU",
		"NCH_BENE_MDCR_BNFTS_EXHTD_DT_I")...)
	cols = append(cols, req("NCH_BENE_DSCHRG_DT")...)
	cols = append(cols, opt("CLM_DRG_CD")...)
	cols = append(cols, req("CLM_DRG_OUTLIER_STAY_CD")...)
	cols = append(cols, opt("NCH_DRG_OUTLIER_APRVD_PMT_AMT", "ADMTG_DGNS_CD", "PRNCPAL_DGNS_CD")...)
	for i := 1; i <= InpatientDiagnosisSlots; i++ {
		cols = append(cols, opt(fmt.Sprintf("ICD_DGNS_CD%d", i), fmt.Sprintf("ICD_DGNS_VRSN_CD%d", i),
			fmt.Sprintf("CLM_POA_IND_SW%d", i))...)
	}
	cols = append(cols, opt("FST_DGNS_E_CD", "FST_DGNS_E_VRSN_CD")...)
	for i := 1; i <= InpatientExternalCauseSlots; i++ {
		cols = append(cols, opt(fmt.Sprintf("ICD_DGNS_E_CD%d", i), fmt.Sprintf("ICD_DGNS_E_VRSN_CD%d", i),
			fmt.Sprintf("CLM_E_POA_IND_SW%d", i))...)
	}
	for i := 1; i <= InpatientProcedureSlots; i++ {
		cols = append(cols, opt(fmt.Sprintf("ICD_PRCDR_CD%d", i), fmt.Sprintf("ICD_PRCDR_VRSN_CD%d", i),
			fmt.Sprintf("PRCDR_DT%d", i))...)
	}
	cols = append(cols, opt("IME_OP_CLM_VAL_AMT", "DSH_OP_CLM_VAL_AMT", "CLM_UNCOMPD_CARE_PMT_AMT")...)
	cols = append(cols, req("FI_DOC_CLM_CNTL_NUM", "CLM_LINE_NUM")...)
	cols = append(cols, opt("REV_CNTR")...)
	cols = append(cols, req("HCPCS_CD")...)
	cols = append(cols, opt("HCPCS_1ST_MDFR_CD", "HCPCS_2ND_MDFR_CD", "REV_CNTR_UNIT_CNT",
		"REV_CNTR_RATE_AMT")...)
	cols = append(cols, req("REV_CNTR_TOT_CHRG_AMT")...)
	cols = append(cols, opt("REV_CNTR_PRVDR_PMT_AMT", "REV_CNTR_BENE_PMT_AMT", "REV_CNTR_PMT_AMT_AMT")...)
	cols = append(cols, req("REV_CNTR_NCVRD_CHRG_AMT")...)
	cols = append(cols, opt("REV_CNTR_DDCTBL_COINSRNC_CD", "REV_CNTR_NDC_QTY", "REV_CNTR_NDC_QTY_QLFR_CD",
		"RNDRNG_PHYSN_UPIN", "RNDRNG_PHYSN_NPI")...)
	return cols
}

// Inpatient header and line fields used by the exporter.
var (
	BeneID                    = Inpatient.MustField("BENE_ID")
	ClmID                     = Inpatient.MustField("CLM_ID")
	ClmGrpID                  = Inpatient.MustField("CLM_GRP_ID")
	FIDocClmCntlNum           = Inpatient.MustField("FI_DOC_CLM_CNTL_NUM")
	ClmFromDt                 = Inpatient.MustField("CLM_FROM_DT")
	ClmThruDt                 = Inpatient.MustField("CLM_THRU_DT")
	ClmAdmsnDt                = Inpatient.MustField("CLM_ADMSN_DT")
	NchBeneDschrgDt           = Inpatient.MustField("NCH_BENE_DSCHRG_DT")
	NchWklyProcDt             = Inpatient.MustField("NCH_WKLY_PROC_DT")
	PrvdrNum                  = Inpatient.MustField("PRVDR_NUM")
	PrvdrStateCd              = Inpatient.MustField("PRVDR_STATE_CD")
	AtPhysnNPI                = Inpatient.MustField("AT_PHYSN_NPI")
	OpPhysnNPI                = Inpatient.MustField("OP_PHYSN_NPI")
	RndrngPhysnNPI            = Inpatient.MustField("RNDRNG_PHYSN_NPI")
	OrgNPINum                 = Inpatient.MustField("ORG_NPI_NUM")
	ClmPmtAmt                 = Inpatient.MustField("CLM_PMT_AMT")
	NchPrmryPyrClmPdAmt       = Inpatient.MustField("NCH_PRMRY_PYR_CLM_PD_AMT")
	PtntDschrgStusCd          = Inpatient.MustField("PTNT_DSCHRG_STUS_CD")
	NchPtntStatusIndCd        = Inpatient.MustField("NCH_PTNT_STATUS_IND_CD")
	ClmTotChrgAmt             = Inpatient.MustField("CLM_TOT_CHRG_AMT")
	ClmIPAdmsnTypeCd          = Inpatient.MustField("CLM_IP_ADMSN_TYPE_CD")
	NchBeneIPDdctblAmt        = Inpatient.MustField("NCH_BENE_IP_DDCTBL_AMT")
	NchBenePtaCoinsrncLbltyAm = Inpatient.MustField("NCH_BENE_PTA_COINSRNC_LBLTY_AM")
	NchIPNcvrdChrgAmt         = Inpatient.MustField("NCH_IP_NCVRD_CHRG_AMT")
	NchIPTotDdctnAmt          = Inpatient.MustField("NCH_IP_TOT_DDCTN_AMT")
	ClmUtlztnDayCnt           = Inpatient.MustField("CLM_UTLZTN_DAY_CNT")
	BeneTotCoinsrncDaysCnt    = Inpatient.MustField("BENE_TOT_COINSRNC_DAYS_CNT")
	ClmDrgOutlierStayCd       = Inpatient.MustField("CLM_DRG_OUTLIER_STAY_CD")
	ClmDrgCd                  = Inpatient.MustField("CLM_DRG_CD")
	AdmtgDgnsCd               = Inpatient.MustField("ADMTG_DGNS_CD")
	PrncpalDgnsCd             = Inpatient.MustField("PRNCPAL_DGNS_CD")

	ClmLineNum              = Inpatient.MustField("CLM_LINE_NUM")
	RevCntr                 = Inpatient.MustField("REV_CNTR")
	HcpcsCd                 = Inpatient.MustField("HCPCS_CD")
	RevCntrUnitCnt          = Inpatient.MustField("REV_CNTR_UNIT_CNT")
	RevCntrRateAmt          = Inpatient.MustField("REV_CNTR_RATE_AMT")
	RevCntrTotChrgAmt       = Inpatient.MustField("REV_CNTR_TOT_CHRG_AMT")
	RevCntrNcvrdChrgAmt     = Inpatient.MustField("REV_CNTR_NCVRD_CHRG_AMT")
	RevCntrDdctblCoinsrncCd = Inpatient.MustField("REV_CNTR_DDCTBL_COINSRNC_CD")
	RevCntrNDCQty           = Inpatient.MustField("REV_CNTR_NDC_QTY")
	RevCntrNDCQtyQlfrCd     = Inpatient.MustField("REV_CNTR_NDC_QTY_QLFR_CD")
)

// Numbered column groups of the inpatient layout.
var (
	InpatientDiagnoses      = diagnosisSlots(Inpatient, "ICD_DGNS_CD%d", "ICD_DGNS_VRSN_CD%d", "CLM_POA_IND_SW%d", InpatientDiagnosisSlots)
	InpatientProcedures     = procedureSlots(Inpatient, "ICD_PRCDR_CD%d", "ICD_PRCDR_VRSN_CD%d", "PRCDR_DT%d", InpatientProcedureSlots)
	InpatientExternalCauses = []ExternalCauseSlot{
		{
			Code:    Inpatient.MustField("ICD_DGNS_E_CD1"),
			Version: Inpatient.MustField("ICD_DGNS_E_VRSN_CD1"),
			POA:     Inpatient.MustField("CLM_E_POA_IND_SW1"),
			HasPOA:  true,
		},
		{
			Code:    Inpatient.MustField("FST_DGNS_E_CD"),
			Version: Inpatient.MustField("FST_DGNS_E_VRSN_CD"),
		},
	}
)

func diagnosisSlots(s *Schema, code, version, poa string, n int) []DiagnosisSlot {
	out := make([]DiagnosisSlot, n)
	for i := range out {
		out[i] = DiagnosisSlot{
			Code:    s.MustField(fmt.Sprintf(code, i+1)),
			Version: s.MustField(fmt.Sprintf(version, i+1)),
			POA:     s.MustField(fmt.Sprintf(poa, i+1)),
		}
	}
	return out
}

func procedureSlots(s *Schema, code, version, date string, n int) []ProcedureSlot {
	out := make([]ProcedureSlot, n)
	for i := range out {
		out[i] = ProcedureSlot{
			Code:    s.MustField(fmt.Sprintf(code, i+1)),
			Version: s.MustField(fmt.Sprintf(version, i+1)),
			Date:    s.MustField(fmt.Sprintf(date, i+1)),
		}
	}
	return out
}

// InpatientDefaults are the constant values every inpatient record starts from.
// Configured static fields are layered on top.
var InpatientDefaults = StaticFields{
	"DML_IND":                    "INSERT",
	"FINAL_ACTION":               "F",
	"NCH_NEAR_LINE_REC_IDENT_CD": "V",
	"NCH_CLM_TYPE_CD":            "60",
	"CLAIM_QUERY_CODE":           "3",
	"CLM_FAC_TYPE_CD":            "1",
	"CLM_SRVC_CLSFCTN_TYPE_CD":   "1",
	"CLM_FREQ_CD":                "1",
	"CLM_PPS_IND_CD":             "2",
	"CLM_SRC_IP_ADMSN_CD":        "1",
	"NCH_PRMRY_PYR_CD":           "A",
	"FI_CLM_ACTN_CD":             "1",
}
