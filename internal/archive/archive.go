// Package archive exports sweep results to a blob bucket so finished sweeps can be
// shared or retained after the local journal database is gone.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gocloud.dev/blob"

	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"

	// Register all bucket provider drivers
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Archiver exports sweep results to durable storage.
type Archiver interface {
	// ExportSweep writes a sweep summary and per-run output tails to the bucket.
	// Returns the key of the summary object.
	ExportSweep(ctx context.Context, sweep *sweepDomain.Sweep, runs []*sweepDomain.Run) (string, error)
	Close() error
}

// runSummary is the exported shape of one run.
type runSummary struct {
	Seed       int        `json:"seed"`
	OutputDir  string     `json:"output_dir"`
	Status     string     `json:"status"`
	ExitCode   *int       `json:"exit_code"`
	Attempts   int        `json:"attempts"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// sweepSummary is the exported shape of a sweep.
type sweepSummary struct {
	ID            string                        `json:"id"`
	Name          string                        `json:"name"`
	SeedStart     int                           `json:"seed_start"`
	SeedEnd       int                           `json:"seed_end"`
	FailurePolicy string                        `json:"failure_policy"`
	Status        string                        `json:"status"`
	Hyperparams   sweepDomain.Hyperparameters   `json:"hyperparameters"`
	Runs          []runSummary                  `json:"runs"`
	ExportedAt    time.Time                     `json:"exported_at"`
}

// blobArchiver implements Archiver on top of a gocloud.dev bucket.
type blobArchiver struct {
	bucket *blob.Bucket
}

// NewBlobArchiver opens the bucket identified by bucketURL. Supports: file://,
// s3://, gs://, azblob://.
func NewBlobArchiver(ctx context.Context, bucketURL string) (Archiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive bucket: %w", err)
	}
	return &blobArchiver{bucket: bucket}, nil
}

// ExportSweep writes sweeps/<id>/summary.json plus one log object per run that
// captured trainer output.
func (a *blobArchiver) ExportSweep(
	ctx context.Context,
	sweep *sweepDomain.Sweep,
	runs []*sweepDomain.Run,
) (string, error) {
	summary := sweepSummary{
		ID:            sweep.ID.String(),
		Name:          sweep.Name,
		SeedStart:     sweep.SeedStart,
		SeedEnd:       sweep.SeedEnd,
		FailurePolicy: string(sweep.FailurePolicy),
		Status:        string(sweep.Status),
		Hyperparams:   sweep.Hyperparameters,
		Runs:          make([]runSummary, 0, len(runs)),
		ExportedAt:    time.Now().UTC(),
	}
	for _, run := range runs {
		summary.Runs = append(summary.Runs, runSummary{
			Seed:       run.Seed,
			OutputDir:  run.OutputDir,
			Status:     string(run.Status),
			ExitCode:   run.ExitCode,
			Attempts:   run.Attempts,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		})
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal sweep summary: %w", err)
	}

	summaryKey := fmt.Sprintf("sweeps/%s/summary.json", sweep.ID)
	writeOpts := &blob.WriterOptions{ContentType: "application/json"}
	if err := a.bucket.WriteAll(ctx, summaryKey, data, writeOpts); err != nil {
		return "", fmt.Errorf("failed to write sweep summary: %w", err)
	}

	logOpts := &blob.WriterOptions{ContentType: "text/plain"}
	for _, run := range runs {
		if run.OutputTail == "" {
			continue
		}
		key := fmt.Sprintf("sweeps/%s/logs/seed_%d.log", sweep.ID, run.Seed)
		if err := a.bucket.WriteAll(ctx, key, []byte(run.OutputTail), logOpts); err != nil {
			return "", fmt.Errorf("failed to write run log for seed %d: %w", run.Seed, err)
		}
	}

	return summaryKey, nil
}

// Close releases the bucket.
func (a *blobArchiver) Close() error {
	return a.bucket.Close()
}
