package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/mrsinham/cxrreport/internal/pipeline"
)

func runSend(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)

	positional, err := parseArgs(fs, args)
	if err != nil {
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(stderr, "Error: send requires <dicom_dir>")
		return 1
	}

	cfg, logger, err := common.load(nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	outcomes, err := newPublisher(cfg, logger).DiscoverAndPublish(ctx, positional[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	summary := pipeline.Summary{Attempted: len(outcomes)}
	for _, o := range outcomes {
		if o.Err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, pipeline.Failure{
				FilePath: o.Path,
				Kind:     pipeline.KindUpload,
				Message:  o.Err.Error(),
			})
			continue
		}
		summary.Succeeded++
	}
	fmt.Fprint(stdout, renderSummary("Sending", summary))
	return 0
}
