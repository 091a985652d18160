// Package exitcode defines the process exit codes of rifexport.
package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	MappingError    = 4
	ExportError     = 5
	PartialSuccess  = 6
)
