package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/rifexport/internal/db"
	"github.com/gyeh/rifexport/internal/normalize"
	"github.com/gyeh/rifexport/internal/timeline"
)

// PreflightResult holds the context resolved before any claim is exported.
type PreflightResult struct {
	// InputPath is the timeline path as given.
	InputPath string
	// InputSHA256 is the hex-encoded SHA-256 digest of the timeline file.
	InputSHA256 string
	InputSize   int64
	// Patients is the number of non-blank lines, an upper bound on patients.
	Patients int64
	// RunID identifies this export run; Postgres rows carry it.
	RunID uuid.UUID
}

// Preflight hashes and counts the timeline file and, when conn is set,
// registers the run in export.runs.
func Preflight(ctx context.Context, conn db.Conn, log zerolog.Logger, path string) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.FileHash(path)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}
	patients, err := timeline.Count(path)
	if err != nil {
		return nil, fmt.Errorf("preflight count: %w", err)
	}

	pf := &PreflightResult{
		InputPath:   path,
		InputSHA256: sha,
		InputSize:   stat.Size(),
		Patients:    patients,
		RunID:       uuid.New(),
	}

	if conn != nil {
		if err := db.RegisterRun(ctx, conn, pf.RunID, path, sha); err != nil {
			return nil, fmt.Errorf("preflight: %w", err)
		}
	}

	log.Info().
		Str("file", filepath.Base(path)).
		Str("sha256", sha).
		Int64("patients", patients).
		Str("run_id", pf.RunID.String()).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")
	return pf, nil
}
