package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/rifexport/internal/model"
	"github.com/gyeh/rifexport/internal/timeline"
)

const readBatchSize = 256

// PatientExporter exports the claims of one patient.
type PatientExporter interface {
	Export(ctx context.Context, p *model.Patient) (int, error)
}

// claimExporters runs every exporter over a patient, one claim type after the
// other, and stops at the first failure.
type claimExporters []PatientExporter

func (xs claimExporters) Export(ctx context.Context, p *model.Patient) (int, error) {
	total := 0
	for _, x := range xs {
		n, err := x.Export(ctx, p)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ExportResult holds metrics from the export phase.
type ExportResult struct {
	PatientsRead     int64
	PatientsRejected int64
	PatientsExported int64
	PatientsFailed   int64
	ClaimsExported   int64
	Duration         time.Duration
}

// ExportPatients streams patients from the timeline file to workers
// goroutines. A patient that fails to export is logged and counted; the run
// continues. Only read failures and cancellation stop the phase.
func ExportPatients(ctx context.Context, log zerolog.Logger, x PatientExporter, path string, workers int) (*ExportResult, error) {
	start := time.Now()

	reader, err := timeline.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export open: %w", err)
	}
	defer reader.Close()

	g, gctx := errgroup.WithContext(ctx)
	ch := make(chan *model.Patient, readBatchSize)
	var read, rejected, exported, failed, claims atomic.Int64

	// Producer: read timeline → push patients to channel
	g.Go(func() error {
		defer close(ch)
		buf := make([]model.Patient, readBatchSize)
		for {
			n, readErr := reader.Read(buf)
			for i := 0; i < n; i++ {
				p := buf[i]
				read.Add(1)
				select {
				case ch <- &p:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			switch {
			case readErr == nil:
			case errors.Is(readErr, io.EOF):
				return nil
			case errors.Is(readErr, timeline.ErrInvalidPatient):
				rejected.Add(1)
				log.Warn().Err(readErr).Msg("patient rejected")
			default:
				return fmt.Errorf("read timeline at line %d: %w", reader.Line(), readErr)
			}
		}
	})

	// Consumers: export each patient's claims
	for range max(1, workers) {
		g.Go(func() error {
			for p := range ch {
				if err := gctx.Err(); err != nil {
					return err
				}
				n, err := x.Export(gctx, p)
				claims.Add(int64(n))
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failed.Add(1)
					log.Error().Err(err).Str("bene_id", p.BeneID).Int("claims_written", n).Msg("patient export failed")
					continue
				}
				exported.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := ExportResult{
		PatientsRead:     read.Load(),
		PatientsRejected: rejected.Load(),
		PatientsExported: exported.Load(),
		PatientsFailed:   failed.Load(),
		ClaimsExported:   claims.Load(),
		Duration:         time.Since(start),
	}
	log.Info().
		Int64("patients_read", res.PatientsRead).
		Int64("patients_exported", res.PatientsExported).
		Int64("patients_failed", res.PatientsFailed).
		Int64("patients_rejected", res.PatientsRejected).
		Int64("claims", res.ClaimsExported).
		Str("duration", res.Duration.String()).
		Float64("patients_per_sec", float64(res.PatientsRead)/res.Duration.Seconds()).
		Msg("export complete")
	return &res, nil
}
