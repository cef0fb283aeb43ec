package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mrsinham/cxrreport/internal/config"
	"github.com/mrsinham/cxrreport/internal/dicom"
	"github.com/mrsinham/cxrreport/internal/pipeline"
	"github.com/mrsinham/cxrreport/internal/results"
)

func runProcess(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	weights := fs.String("weights", "", "Model weights identifier")
	cuda := fs.Bool("cuda", false, "Run the model on GPU")
	resize := fs.Bool("resize", false, "Resize images before scoring")
	xlsxPath := fs.String("xlsx", "", "Also write a spreadsheet summary to this file")
	workers := fs.Int("workers", 0, "Files scored in parallel")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return 1
	}
	if len(positional) != 2 {
		fmt.Fprintln(stderr, "Error: process requires <dicom_dir> <output.json>")
		return 1
	}
	dir, outPath := positional[0], positional[1]

	cfg, logger, err := common.load(func(c *config.Config) {
		if *weights != "" {
			c.Inference.Weights = *weights
		}
		c.Inference.CUDA = c.Inference.CUDA || *cuda
		c.Inference.Resize = c.Inference.Resize || *resize
		if *workers > 0 {
			c.Workers = *workers
		}
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	paths, err := dicom.Discover(dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	agg := pipeline.NewAggregator(newAdapter(cfg), logger)
	agg.Workers = cfg.Workers
	agg.ProgressCallback = func(current, total int) {
		fmt.Fprintf(stderr, "\rScoring: %d/%d", current, total)
		if current == total {
			fmt.Fprintln(stderr)
		}
	}

	batch, runErr := agg.Run(ctx, paths)
	if err := results.WriteFile(outPath, batch.Records); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	written := []string{outPath}
	if *xlsxPath != "" {
		if err := results.WriteXLSX(*xlsxPath, batch.Records); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		written = append(written, *xlsxPath)
	}
	if err := mirrorFiles(ctx, cfg, logger, written); err != nil {
		logger.Warn("Failed to mirror results", zap.Error(err))
	}

	fmt.Fprint(stdout, renderSummary("Scoring", pipeline.SummarizeBatch(batch)))
	fmt.Fprintf(stdout, "Results written to %s\n", outPath)
	if runErr != nil {
		fmt.Fprintf(stderr, "Interrupted: %v\n", runErr)
	}
	return 0
}

// mirrorFiles copies run artifacts to object storage under their base name.
func mirrorFiles(ctx context.Context, cfg *config.Config, logger *zap.Logger, paths []string) error {
	mirror, err := newMirror(cfg, logger)
	if err != nil || mirror == nil {
		return err
	}
	for _, p := range paths {
		if err := mirror.Put(ctx, filepath.Base(p), p); err != nil {
			return err
		}
	}
	return nil
}
