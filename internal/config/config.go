package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/rifexport/internal/ids"
	"github.com/gyeh/rifexport/internal/mapping"
	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/normalize"
	"github.com/gyeh/rifexport/internal/rif"
)

// Output formats.
const (
	FormatRIF      = "rif"
	FormatParquet  = "parquet"
	FormatPostgres = "postgres"
)

// Config holds all runtime configuration for a rifexport run.
type Config struct {
	DSN          string
	PatientsPath string
	OutDir       string
	Format       string // "rif", "parquet" or "postgres"
	LogFormat    string // "text" or "json"
	Workers      int
	DryRun       bool

	// StartDate is the earliest exportable encounter stop date.
	StartDate string
	// ClaimCutoff is the global claim cutoff date; empty disables it.
	ClaimCutoff             string
	PrimaryGovernmentPlan   string
	EligiblePlans           []string
	InpatientAdmissionHours int
	ClaimTypes              []string // subset of AllClaimTypes to export

	IDs          ids.Start
	StaticFields map[string]rif.StaticFields // record type → column → value
	Mappings     mapping.Paths
}

// yamlConfig is the on-disk YAML structure. Pointers distinguish absent keys
// from zero values.
type yamlConfig struct {
	StartDate               *string                     `yaml:"start_date"`
	ClaimCutoff             *string                     `yaml:"claim_cutoff"`
	PrimaryGovernmentPlan   *string                     `yaml:"primary_government_plan"`
	EligiblePlans           []string                    `yaml:"eligible_plans"`
	InpatientAdmissionHours *int                        `yaml:"inpatient_admission_hours"`
	ClaimTypes              []string                    `yaml:"claim_types"`
	ClaimIDStart            *int64                      `yaml:"claim_id_start"`
	ClaimGroupIDStart       *int64                      `yaml:"claim_group_id_start"`
	FIDocCntlNumStart       *int64                      `yaml:"fi_doc_cntl_num_start"`
	StaticFields            map[string]rif.StaticFields `yaml:"static_fields"`
	Mappings                mapping.Paths               `yaml:"mappings"`
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		Format:                  FormatRIF,
		LogFormat:               "text",
		Workers:                 runtime.NumCPU(),
		PrimaryGovernmentPlan:   "medicare",
		InpatientAdmissionHours: 24,
		ClaimTypes:              []string{model.ClaimInpatient.Name},
		IDs:                     ids.DefaultStart,
	}
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Relative mapping paths are resolved against the config file's directory.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setIf(&c.StartDate, yc.StartDate)
	setIf(&c.ClaimCutoff, yc.ClaimCutoff)
	setIf(&c.PrimaryGovernmentPlan, yc.PrimaryGovernmentPlan)
	setIf(&c.InpatientAdmissionHours, yc.InpatientAdmissionHours)
	setIf(&c.IDs.ClaimID, yc.ClaimIDStart)
	setIf(&c.IDs.ClaimGroupID, yc.ClaimGroupIDStart)
	setIf(&c.IDs.FIDocID, yc.FIDocCntlNumStart)
	if yc.EligiblePlans != nil {
		c.EligiblePlans = yc.EligiblePlans
	}
	if yc.ClaimTypes != nil {
		c.ClaimTypes = yc.ClaimTypes
	}
	if yc.StaticFields != nil {
		c.StaticFields = yc.StaticFields
	}
	c.Mappings = resolvePaths(filepath.Dir(path), yc.Mappings)
	return c.validateClaimTypes()
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func resolvePaths(dir string, p mapping.Paths) mapping.Paths {
	abs := func(s string) string {
		if s == "" || filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(dir, s)
	}
	return mapping.Paths{
		Conditions: abs(p.Conditions),
		Procedures: abs(p.Procedures),
		DRG:        abs(p.DRG),
		HCPCS:      abs(p.HCPCS),
		External:   abs(p.External),
		States:     abs(p.States),
	}
}

// validateClaimTypes checks that every entry in ClaimTypes is a known claim type
// this build can export, canonicalizes the names and drops duplicates. If
// ClaimTypes is empty, it defaults to INPATIENT.
func (c *Config) validateClaimTypes() error {
	if len(c.ClaimTypes) == 0 {
		c.ClaimTypes = []string{model.ClaimInpatient.Name}
		return nil
	}
	names := make([]string, 0, len(c.ClaimTypes))
	for _, name := range c.ClaimTypes {
		name = strings.ToUpper(strings.TrimSpace(name))
		ct, ok := model.ClaimTypeByName(name)
		if !ok {
			return fmt.Errorf("unknown claim type %q in config", name)
		}
		if ct.RecordType != rif.Inpatient.Name() {
			return fmt.Errorf("claim type %s is not supported for export", name)
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	c.ClaimTypes = names
	return nil
}

// ExportClaimTypes returns the configured claim types. Call after Validate.
func (c *Config) ExportClaimTypes() []model.ClaimType {
	out := make([]model.ClaimType, 0, len(c.ClaimTypes))
	for _, name := range c.ClaimTypes {
		if ct, ok := model.ClaimTypeByName(name); ok {
			out = append(out, ct)
		}
	}
	return out
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.PatientsPath == "" {
		return fmt.Errorf("--patients is required")
	}
	if _, err := os.Stat(c.PatientsPath); err != nil {
		return fmt.Errorf("patients file not accessible: %w", err)
	}
	switch c.Format {
	case FormatRIF, FormatParquet:
		if c.OutDir == "" && !c.DryRun {
			return fmt.Errorf("--out is required for format %s", c.Format)
		}
	case FormatPostgres:
	default:
		return fmt.Errorf("unknown format %q (want rif, parquet or postgres)", c.Format)
	}
	if c.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1")
	}
	if c.InpatientAdmissionHours < 1 {
		return fmt.Errorf("inpatient_admission_hours must be at least 1")
	}
	if _, _, err := c.ExportWindow(); err != nil {
		return err
	}
	if err := c.validateClaimTypes(); err != nil {
		return err
	}
	for recordType := range c.StaticFields {
		if recordType != rif.Inpatient.Name() {
			return fmt.Errorf("static_fields for unknown record type %q", recordType)
		}
	}
	return rif.InpatientDefaults.Merge(c.StaticFields[rif.Inpatient.Name()]).Check(rif.Inpatient)
}

// ValidateWithDSN checks both the run fields and DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

// ExportWindow parses the start date and claim cutoff. Unset dates are zero.
func (c *Config) ExportWindow() (start, cutoff time.Time, err error) {
	parse := func(name, v string) (time.Time, error) {
		if strings.TrimSpace(v) == "" {
			return time.Time{}, nil
		}
		t := normalize.ParseDate(v)
		if t == nil {
			return time.Time{}, fmt.Errorf("invalid %s %q", name, v)
		}
		return *t, nil
	}
	if start, err = parse("start date", c.StartDate); err != nil {
		return
	}
	cutoff, err = parse("claim cutoff", c.ClaimCutoff)
	return
}

// AdmissionThreshold returns how long an emergency visit must last to be
// billed as an inpatient stay.
func (c *Config) AdmissionThreshold() time.Duration {
	return time.Duration(c.InpatientAdmissionHours) * time.Hour
}
