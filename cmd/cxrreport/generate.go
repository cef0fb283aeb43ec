package main

import (
	"flag"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/mrsinham/cxrreport/internal/config"
	"github.com/mrsinham/cxrreport/internal/dicom"
	"github.com/mrsinham/cxrreport/internal/dicom/corruption"
	"github.com/mrsinham/cxrreport/internal/dicom/edgecases"
	"github.com/mrsinham/cxrreport/internal/dicom/modalities"
	"github.com/mrsinham/cxrreport/internal/logging"
)

func runGenerate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	numImages := fs.Int("n", 3, "Number of images to generate")
	outputDir := fs.String("out", "dicom_samples", "Output directory")
	modality := fs.String("modality", "DX", "Imaging modality: CR, DX")
	numPatients := fs.Int("patients", 1, "Number of patients (images are distributed among patients)")
	size := fs.Int("size", dicom.DefaultImageSize, "Rows and columns of each image")
	seed := fs.Int64("seed", 0, "Seed for reproducibility (derived from the output directory if not specified)")
	workers := fs.Int("workers", 0, fmt.Sprintf("Number of parallel workers (default: %d = CPU cores)", runtime.NumCPU()))

	// Repeatable, each value may itself be a comma-separated list.
	var omit []string
	fs.Func("omit", "Attributes to leave out, e.g. 'PatientSex,StudyID' (repeatable)", func(s string) error {
		for _, name := range strings.Split(s, ",") {
			if name = strings.TrimSpace(name); name != "" {
				omit = append(omit, name)
			}
		}
		return nil
	})

	edgeCasePercentage := fs.Int("edge-cases", 0, "Percentage of files with edge case variations (0-100)")
	edgeCaseTypes := fs.String("edge-case-types", "missing-tags,blank-tags,no-window", "Comma-separated edge case types to enable")
	corruptTargets := fs.String("corrupt", "", "Damage files as type:index pairs, e.g. truncated:2,garbage:3")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return 1
	}
	if len(positional) > 0 {
		fmt.Fprintf(stderr, "Error: unexpected argument %q\n", positional[0])
		return 1
	}

	if *numImages <= 0 {
		fmt.Fprintln(stderr, "Error: -n must be > 0")
		return 1
	}

	modalityUpper := strings.ToUpper(*modality)
	if !modalities.IsValid(modalityUpper) {
		fmt.Fprintf(stderr, "Error: invalid modality %q, valid options: %v\n", *modality, modalities.AllModalities())
		return 1
	}

	var edgeCaseConfig edgecases.Config
	if *edgeCasePercentage > 0 {
		types, err := edgecases.ParseTypes(*edgeCaseTypes)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		edgeCaseConfig = edgecases.Config{Percentage: *edgeCasePercentage, Types: types}
		if err := edgeCaseConfig.Validate(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Edge cases: %d%% of files with types %v\n", *edgeCasePercentage, types)
	}

	var corruptionConfig corruption.Config
	if *corruptTargets != "" {
		targets, err := corruption.ParseTargets(*corruptTargets)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		corruptionConfig = corruption.Config{Targets: targets}
		if err := corruptionConfig.Validate(*numImages); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Corruption: %d damaged file(s)\n", len(targets))
	}

	logger, err := logging.New(config.LoggingConfig{Level: *logLevel, Encoding: "console"})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	opts := dicom.RadiographOptions{
		NumImages:        *numImages,
		OutputDir:        *outputDir,
		Seed:             *seed,
		Size:             *size,
		NumPatients:      *numPatients,
		Workers:          *workers,
		Modality:         modalities.Modality(modalityUpper),
		OmitTags:         omit,
		EdgeCaseConfig:   edgeCaseConfig,
		CorruptionConfig: corruptionConfig,
		Logger:           logger,
		ProgressCallback: func(current, total int) {
			fmt.Fprintf(stdout, "\rGenerating: %d/%d", current, total)
			if current == total {
				fmt.Fprintln(stdout)
			}
		},
	}

	fmt.Fprintln(stdout, "cxrreport")
	fmt.Fprintln(stdout, "=========")
	fmt.Fprintln(stdout)

	files, err := dicom.GenerateRadiographs(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error generating radiographs: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "\n✓ Generation complete!")
	fmt.Fprintf(stdout, "  %d file(s) in %s\n", len(files), *outputDir)
	return 0
}
