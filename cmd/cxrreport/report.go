package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mrsinham/cxrreport/internal/config"
	"github.com/mrsinham/cxrreport/internal/dicom/sr"
	"github.com/mrsinham/cxrreport/internal/pipeline"
)

func runReport(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	outDir := fs.String("out", "", "Directory receiving the structured reports")
	upload := fs.Bool("upload", false, "Send each report to the archive")
	withEvidence := fs.Bool("with-evidence", false, "Also send the source image of each report")
	observer := fs.String("observer", "", "Person observer name")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(stderr, "Error: report requires <results.json>")
		return 1
	}

	cfg, logger, err := common.load(func(c *config.Config) {
		if *outDir != "" {
			c.Report.OutputDir = *outDir
		}
		if *observer != "" {
			c.Report.ObserverName = *observer
		}
		c.Report.PublishEvidence = c.Report.PublishEvidence || *withEvidence
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	synth := sr.NewSynthesizer(sr.Options{
		ObserverName:        cfg.Report.ObserverName,
		DeviceName:          cfg.Report.DeviceName,
		FreshSOPInstanceUID: cfg.Report.FreshSOPInstanceUID,
	})
	reporter := pipeline.NewReporter(synth, cfg.Report.OutputDir, logger)
	if *upload {
		reporter.Publisher = newPublisher(cfg, logger)
		reporter.PublishEvidence = cfg.Report.PublishEvidence
	}
	mirror, err := newMirror(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	reporter.Mirror = mirror

	summary, _, err := reporter.RunFile(ctx, positional[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprint(stdout, renderSummary("Reporting", summary))
	fmt.Fprintf(stdout, "Reports written to %s\n", cfg.Report.OutputDir)
	return 0
}
