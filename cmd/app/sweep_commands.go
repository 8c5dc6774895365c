package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/seedsweep/cmd/app/commands"
	"github.com/allisson/seedsweep/internal/app"
	"github.com/allisson/seedsweep/internal/archive"
	"github.com/allisson/seedsweep/internal/config"
	sweepDomain "github.com/allisson/seedsweep/internal/sweep/domain"
	sweepUsecase "github.com/allisson/seedsweep/internal/sweep/usecase"
)

// presetFlags are shared by the commands that build a sweep from a preset.
func presetFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "preset",
			Aliases:  []string{"p"},
			Required: true,
			Usage:    fmt.Sprintf("Sweep preset: %v", sweepDomain.PresetNames()),
		},
		&cli.StringFlag{
			Name:  "failure-policy",
			Value: cfg.FailurePolicy,
			Usage: "What a failed run does to the rest of the sweep: 'continue' or 'abort'",
		},
		&cli.StringFlag{
			Name:  "data-root",
			Value: cfg.DataRoot,
			Usage: "Directory holding the training datasets",
		},
		&cli.StringFlag{
			Name:  "output-root",
			Value: cfg.OutputRoot,
			Usage: "Directory receiving the per-seed output directories",
		},
		&cli.StringFlag{
			Name:  "lm-dir",
			Value: cfg.LMDir,
			Usage: "Directory holding the fine-tuned language model",
		},
		&cli.StringFlag{
			Name:  "neutral-words-file",
			Value: cfg.NeutralWordsFile,
			Usage: "CSV file with neutral identity words for regularization",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "text",
			Usage:   "Output format: 'text' or 'json'",
		},
	}
}

func presetPaths(cmd *cli.Command) sweepDomain.PresetPaths {
	return sweepDomain.PresetPaths{
		DataRoot:         cmd.String("data-root"),
		OutputRoot:       cmd.String("output-root"),
		LMDir:            cmd.String("lm-dir"),
		NeutralWordsFile: cmd.String("neutral-words-file"),
	}
}

func getSweepCommands() []*cli.Command {
	cfg := config.Load()

	return []*cli.Command{
		{
			Name:  "run-sweep",
			Usage: "Create a sweep from a preset and execute it seed by seed",
			Flags: presetFlags(cfg),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SweepUseCase()
				if err != nil {
					return err
				}

				return commands.RunSweep(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("preset"),
					cmd.String("failure-policy"),
					presetPaths(cmd),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-sweep",
			Usage: "Register a sweep and its run journal without executing it",
			Flags: presetFlags(cfg),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SweepUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateSweep(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("preset"),
					cmd.String("failure-policy"),
					presetPaths(cmd),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "plan-sweep",
			Usage: "Print the trainer command lines a preset sweep would issue",
			Flags: presetFlags(cfg),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(cfg)

				// Planning never touches the journal, so the use case is built
				// without database-backed dependencies.
				useCase := sweepUsecase.NewSweepUseCase(
					sweepUsecase.Config{
						TrainerProgram: cfg.TrainerProgram,
						TrainerScript:  cfg.TrainerScript,
						TrainerWorkDir: cfg.TrainerWorkDir,
					},
					nil, nil, nil, nil, nil,
					container.Logger(),
				)

				return commands.RunPlanSweep(
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("preset"),
					cmd.String("failure-policy"),
					presetPaths(cmd),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "resume-sweep",
			Usage: "Re-execute an existing sweep, skipping runs that already succeeded",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Sweep ID",
				},
				&cli.BoolFlag{
					Name:  "force",
					Value: false,
					Usage: "Re-run seeds that already succeeded",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SweepUseCase()
				if err != nil {
					return err
				}

				return commands.RunResumeSweep(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.Bool("force"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "sweep-status",
			Usage: "Show the current state of a sweep and its run journal",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Sweep ID",
				},
				&cli.BoolFlag{
					Name:  "runs",
					Value: true,
					Usage: "Include the per-seed run journal",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SweepUseCase()
				if err != nil {
					return err
				}

				return commands.RunSweepStatus(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.Bool("runs"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "export-sweep",
			Usage: "Export a sweep's summary and captured trainer output to the archive bucket",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Sweep ID",
				},
				&cli.StringFlag{
					Name:  "bucket-url",
					Value: cfg.ArchiveBucketURL,
					Usage: "Bucket URL (file://, s3://, gs:// or azblob://)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				bucketURL := cmd.String("bucket-url")
				if bucketURL == "" {
					return fmt.Errorf("bucket URL is required: set --bucket-url or ARCHIVE_BUCKET_URL")
				}

				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				useCase, err := container.SweepUseCase()
				if err != nil {
					return err
				}

				archiver, err := archive.NewBlobArchiver(ctx, bucketURL)
				if err != nil {
					return err
				}
				defer func() { _ = archiver.Close() }()

				return commands.RunExportSweep(
					ctx,
					useCase,
					archiver,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
	}
}
