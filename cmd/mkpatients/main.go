// mkpatients writes a synthetic NDJSON patient timeline file for trying out
// rifexport without a simulator.
// Usage: go run ./cmd/mkpatients --out testdata/patients.ndjson --patients 500 --seed 7
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	randomdata "github.com/Pallinder/go-randomdata"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/timeline"
)

// Source codes covered by testdata/mappings.
var (
	conditionCodes  = []string{"44054006", "38341003", "55822004", "74400008", "195662009", "233604007"}
	procedureCodes  = []string{"80146002", "73761001", "396487001", "430193006"}
	medicationCodes = []string{"308182", "314076", "1049630"}
	plans           = []string{"Medicare", "Medicare", "Medicaid", "Blue Cross"}
	classes         = []model.EncounterClass{
		model.ClassInpatient, model.ClassInpatient, model.ClassEmergency,
		model.ClassAmbulatory, model.ClassOutpatient, model.ClassWellness,
	}
)

func main() {
	out := flag.String("out", "testdata/patients.ndjson", "output NDJSON file")
	patients := flag.Int("patients", 100, "number of patients")
	encounters := flag.Int("encounters", 12, "max encounters per patient")
	seed := flag.Int64("seed", 1, "random seed")
	from := flag.String("from", "2015-01-01", "earliest encounter date")
	to := flag.String("to", "2023-12-31", "latest encounter date")
	flag.Parse()

	randomdata.CustomRand(rand.New(rand.NewSource(*seed)))

	w, err := timeline.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}

	classCounts := make(map[model.EncounterClass]int)
	for i := 0; i < *patients; i++ {
		p := genPatient(i, *from, *to, *encounters)
		for _, e := range p.Encounters {
			classCounts[e.Class]++
		}
		if err := w.Write(p); err != nil {
			fmt.Fprintf(os.Stderr, "write patient %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d patients to %s\n", *patients, *out)
	fmt.Println("Encounter classes:")
	for _, c := range []model.EncounterClass{model.ClassInpatient, model.ClassEmergency, model.ClassAmbulatory, model.ClassOutpatient, model.ClassWellness} {
		fmt.Printf("  %-12s %d\n", c, classCounts[c])
	}
}

func genPatient(i int, from, to string, maxEncounters int) *model.Patient {
	p := &model.Patient{
		ID:     randomdata.Alphanumeric(16),
		BeneID: fmt.Sprintf("-%d", 10000+i),
		Seed:   uint64(randomdata.Number(1, 1<<30)),
	}

	first := randomDate(from, to)
	p.Coverage = []model.CoveragePeriod{{
		PlanID: randomdata.StringSample(plans...),
		Start:  first.AddDate(-randomdata.Number(1, 5), 0, 0),
	}}
	for range randomdata.Number(1, 4) {
		p.Conditions = append(p.Conditions, model.Condition{
			Codes: []model.Code{{System: "SNOMED-CT", Code: randomdata.StringSample(conditionCodes...)}},
			Start: first.AddDate(0, -randomdata.Number(1, 24), 0),
		})
	}

	state := randomdata.State(randomdata.Small)
	provider := model.Provider{
		ID:             randomdata.Alphanumeric(10),
		Name:           randomdata.City() + " General Hospital",
		State:          state,
		CMSProviderNum: randomdata.StringNumberExt(1, "", 6),
		NPI:            randomdata.StringNumberExt(1, "", 10),
	}
	clinician := model.Clinician{ID: randomdata.Alphanumeric(10), NPI: randomdata.StringNumberExt(1, "", 10)}

	at := first
	for range randomdata.Number(1, maxEncounters+1) {
		e := genEncounter(at, provider, clinician, p.Coverage[0].PlanID)
		p.Encounters = append(p.Encounters, e)
		at = e.Stop.AddDate(0, 0, randomdata.Number(1, 120))
	}
	return p
}

func genEncounter(start time.Time, provider model.Provider, clinician model.Clinician, plan string) model.Encounter {
	class := classes[randomdata.Number(len(classes))]
	length := time.Duration(randomdata.Number(1, 6)) * time.Hour
	if class == model.ClassInpatient {
		length = time.Duration(randomdata.Number(1, 15)) * 24 * time.Hour
	}
	e := model.Encounter{
		Start:     start,
		Stop:      start.Add(length),
		Ended:     true,
		Class:     class,
		Provider:  provider,
		Clinician: clinician,
		Reason:    &model.Code{System: "SNOMED-CT", Code: randomdata.StringSample(conditionCodes...)},
	}

	var total decimal.Decimal
	for range randomdata.Number(4) {
		item := model.ClaimEntry{
			Entry: &model.Procedure{
				Codes: []model.Code{{System: "SNOMED-CT", Code: randomdata.StringSample(procedureCodes...)}},
				Start: start,
			},
			Cost:        money(50, 5000),
			CopayPaid:   money(0, 20),
			OutOfPocket: decimal.Zero,
		}
		item.DeductiblePaid = item.Cost.Mul(decimal.NewFromFloat(0.1)).Round(2)
		e.Procedures = append(e.Procedures, *item.Entry.(*model.Procedure))
		e.Claim.Items = append(e.Claim.Items, item)
		total = total.Add(item.Cost)
	}
	for range randomdata.Number(3) {
		item := model.ClaimEntry{
			Entry: &model.Medication{
				Codes:          []model.Code{{System: "RxNorm", Code: randomdata.StringSample(medicationCodes...)}},
				Start:          start,
				Administration: randomdata.Boolean(),
			},
			Cost:           money(5, 400),
			CopayPaid:      decimal.Zero,
			DeductiblePaid: decimal.Zero,
			OutOfPocket:    money(0, 5),
		}
		e.Medications = append(e.Medications, *item.Entry.(*model.Medication))
		e.Claim.Items = append(e.Claim.Items, item)
		total = total.Add(item.Cost)
	}
	if total.IsZero() {
		total = money(200, 2000)
	}

	patientShare := total.Mul(decimal.NewFromFloat(randomdata.Decimal(0, 1, 2) * 0.3)).Round(2)
	e.Claim = model.Claim{
		PlanID:               plan,
		TotalCost:            total,
		TotalCoveredCost:     total.Sub(patientShare),
		TotalPatientCost:     patientShare,
		TotalDeductiblePaid:  patientShare.Mul(decimal.NewFromFloat(0.8)).Round(2),
		TotalCoinsurancePaid: patientShare.Mul(decimal.NewFromFloat(0.2)).Round(2),
		Items:                e.Claim.Items,
	}
	return e
}

func money(min, max int) decimal.Decimal {
	return decimal.NewFromFloat(randomdata.Decimal(min, max, 2)).Round(2)
}

func randomDate(from, to string) time.Time {
	d := randomdata.FullDateInRange(from, to)
	t, err := time.Parse(randomdata.DateOutputLayout, d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse generated date %q: %v\n", d, err)
		os.Exit(1)
	}
	return t.Add(time.Duration(randomdata.Number(6, 20)) * time.Hour)
}
