package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/rifexport/internal/config"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/timeline"
)

var fixtureStart = time.Date(2021, time.January, 4, 9, 0, 0, 0, time.UTC)

// fixturePatient has one inpatient stay per element of items; each stay bills
// its items, or falls back to a single row when there are none.
func fixturePatient(i int, items ...[]model.ClaimEntry) *model.Patient {
	p := &model.Patient{
		ID:       fmt.Sprintf("patient-%d", i),
		BeneID:   fmt.Sprintf("-%d", 100+i),
		Seed:     uint64(i),
		Coverage: []model.CoveragePeriod{{PlanID: "medicare", Start: fixtureStart.AddDate(-1, 0, 0)}},
	}
	for j, its := range items {
		start := fixtureStart.AddDate(0, 0, 14*j)
		p.Encounters = append(p.Encounters, model.Encounter{
			Start:     start,
			Stop:      start.Add(72 * time.Hour),
			Ended:     true,
			Class:     model.ClassInpatient,
			Provider:  model.Provider{State: "NY", CMSProviderNum: "330024", NPI: "1111111111"},
			Clinician: model.Clinician{NPI: "2222222222"},
			Reason:    &model.Code{System: "SNOMED-CT", Code: "74400008"},
			Claim: model.Claim{
				PlanID:           "medicare",
				TotalCost:        decimal.NewFromInt(3000),
				TotalCoveredCost: decimal.NewFromInt(2500),
				TotalPatientCost: decimal.NewFromInt(500),
				Items:            its,
			},
		})
	}
	return p
}

func procedureEntry(cost int64) model.ClaimEntry {
	return model.ClaimEntry{
		Entry: &model.Procedure{Codes: []model.Code{{Code: "80146002"}}, Start: fixtureStart},
		Cost:  decimal.NewFromInt(cost),
	}
}

func writePatients(t *testing.T, dir string, patients ...*model.Patient) string {
	t.Helper()
	path := filepath.Join(dir, "patients.ndjson")
	w, err := timeline.Create(path)
	require.NoError(t, err)
	for _, p := range patients {
		require.NoError(t, w.Write(p))
	}
	require.NoError(t, w.Close())
	return path
}

func writeMappings(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rifexport.yaml")
	files := map[string]string{
		"conditions.yaml": "\"74400008\":\n  - code: K35.80\n\"80146002\":\n  - code: 0DTJ4ZZ\n",
		"hcpcs.yaml":      "\"80146002\":\n  - code: \"44970\"\n",
		"drg.yaml":        "K3580:\n  - code: \"343\"\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	cfg := `start_date: "2020-01-01"
eligible_plans: [medicare]
mappings:
  conditions: conditions.yaml
  hcpcs: hcpcs.yaml
  drg: drg.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func testConfig(t *testing.T, patients ...*model.Patient) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.PatientsPath = writePatients(t, dir, patients...)
	cfg.OutDir = filepath.Join(dir, "out")
	cfg.Workers = 4
	require.NoError(t, cfg.LoadFromFile(writeMappings(t, dir)))
	require.NoError(t, cfg.Validate())
	return &cfg
}
