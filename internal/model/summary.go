package model

import "time"

// ExportSummary captures metrics from a single export run.
type ExportSummary struct {
	InputPath        string
	InputSHA256      string
	RunID            string
	Format           string
	PatientsRead     int64
	PatientsRejected int64
	PatientsExported int64
	PatientsFailed   int64
	ClaimsExported   int64
	RowsWritten      int64
	// MappingCodes is the number of source codes per loaded mapping table.
	MappingCodes     map[string]int
	DurationExport   time.Duration
	DurationFinalize time.Duration
	DurationTotal    time.Duration
}
