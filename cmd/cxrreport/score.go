package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/mrsinham/cxrreport/internal/config"
	"github.com/mrsinham/cxrreport/internal/dicom"
)

// scoreOutput is the single-file reply: label scores and, when asked for,
// the model feature vector.
type scoreOutput struct {
	Preds map[string]float64 `json:"preds"`
	Feats []float64          `json:"feats,omitempty"`
}

func runScore(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	weights := fs.String("weights", "", "Model weights identifier")
	cuda := fs.Bool("cuda", false, "Run the model on GPU")
	resize := fs.Bool("resize", false, "Resize the image before scoring")
	feats := fs.Bool("feats", false, "Also print the feature vector")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return 1
	}
	if len(positional) != 1 {
		fmt.Fprintln(stderr, "Error: score requires <file.dcm>")
		return 1
	}

	cfg, logger, err := common.load(func(c *config.Config) {
		if *weights != "" {
			c.Inference.Weights = *weights
		}
		c.Inference.CUDA = c.Inference.CUDA || *cuda
		c.Inference.Resize = c.Inference.Resize || *resize
		c.Inference.Features = c.Inference.Features || *feats
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	px, err := dicom.DecodePixels(positional[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	pred, err := newAdapter(cfg).Score(ctx, px)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	out := scoreOutput{Preds: make(map[string]float64, len(pred.Scores)), Feats: pred.Features}
	for _, sc := range pred.Scores {
		out.Preds[string(sc.Label)] = sc.Value
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}
