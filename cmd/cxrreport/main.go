package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mrsinham/cxrreport/internal/archive"
	"github.com/mrsinham/cxrreport/internal/config"
	"github.com/mrsinham/cxrreport/internal/inference"
	"github.com/mrsinham/cxrreport/internal/logging"
	"github.com/mrsinham/cxrreport/internal/storage"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "-version", "--version", "version":
		fmt.Fprintf(stdout, "cxrreport %s\n", version)
		return 0
	case "-help", "--help", "-h", "help":
		printHelp(stdout)
		return 0
	case "process":
		return runProcess(ctx, args[1:], stdout, stderr)
	case "score":
		return runScore(ctx, args[1:], stdout, stderr)
	case "report":
		return runReport(ctx, args[1:], stdout, stderr)
	case "send":
		return runSend(ctx, args[1:], stdout, stderr)
	case "generate":
		return runGenerate(args[1:], stdout, stderr)
	}

	fmt.Fprintf(stderr, "Error: unknown command %q\n", args[0])
	printUsage(stderr)
	return 1
}

// commonFlags are accepted by every command that talks to a service.
type commonFlags struct {
	configPath string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Load configuration from YAML file")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// load reads the configuration and builds the logger. Flag overrides are
// applied by the caller before validation through apply.
func (c *commonFlags) load(apply func(*config.Config)) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if apply != nil {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// parseArgs parses flags placed before, between or after positional
// arguments, as in "process dir out.json -resize".
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func limiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func newAdapter(cfg *config.Config) *inference.Adapter {
	adapter := inference.NewAdapter(inference.NewClient(cfg.Inference.URL, cfg.Inference.Timeout))
	adapter.Weights = cfg.Inference.Weights
	adapter.UseCUDA = cfg.Inference.CUDA
	adapter.Resize = cfg.Inference.Resize
	adapter.ResizeTo = cfg.Inference.ResizeTo
	adapter.Features = cfg.Inference.Features
	adapter.Limiter = limiter(cfg.Inference.RequestsPerSecond)
	return adapter
}

func newPublisher(cfg *config.Config, logger *zap.Logger) *archive.Publisher {
	client := archive.NewClient(cfg.Archive.URL, cfg.Archive.Username, cfg.Archive.Password, cfg.Archive.Timeout)
	pub := archive.NewPublisher(client, logger)
	pub.Workers = cfg.Workers
	pub.Limiter = limiter(cfg.Archive.RequestsPerSecond)
	return pub
}

// newMirror returns nil when no storage endpoint is configured.
func newMirror(cfg *config.Config, logger *zap.Logger) (storage.Mirror, error) {
	if !cfg.Storage.Enabled() {
		return nil, nil
	}
	m, err := storage.NewMinioMirror(storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
		Prefix:    cfg.Storage.Prefix,
	}, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cxrreport <command> [arguments] [options]")
	fmt.Fprintln(w, "\nCommands: process, score, report, send, generate (cxrreport -help for details)")
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "cxrreport")
	fmt.Fprintln(w, "=========")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Score chest radiographs and publish the findings as DICOM structured reports.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cxrreport <command> [arguments] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  process <dicom_dir> <output.json>")
	fmt.Fprintln(w, "                        Score every .dcm file under dicom_dir into a results file")
	fmt.Fprintln(w, "      -weights <ID>     Model weights (default: densenet121-res224-all)")
	fmt.Fprintln(w, "      -cuda             Run the model on GPU")
	fmt.Fprintln(w, "      -resize           Resize images to 224x224 before scoring")
	fmt.Fprintln(w, "      -xlsx <FILE>      Also write a spreadsheet with a per-label summary")
	fmt.Fprintln(w, "      -workers <N>      Files scored in parallel (default: 1)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  score <file.dcm>      Score one file and print the predictions as JSON")
	fmt.Fprintln(w, "      -weights, -cuda, -resize as above")
	fmt.Fprintln(w, "      -feats            Also print the model feature vector")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  report <results.json> Write one structured report per scored file")
	fmt.Fprintln(w, "      -out <DIR>        Output directory (default: results)")
	fmt.Fprintln(w, "      -upload           Send each report to the archive")
	fmt.Fprintln(w, "      -with-evidence    Also send the source image of each report")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  send <dicom_dir>      Send every .dcm file under dicom_dir to the archive")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  generate              Write synthetic chest radiographs for testing")
	fmt.Fprintln(w, "      -n <N>            Number of images (default: 3)")
	fmt.Fprintln(w, "      -out <DIR>        Output directory (default: dicom_samples)")
	fmt.Fprintln(w, "      -modality <MOD>   CR or DX (default: DX)")
	fmt.Fprintln(w, "      -patients <N>     Number of patients (default: 1)")
	fmt.Fprintln(w, "      -size <N>         Image rows and columns (default: 256)")
	fmt.Fprintln(w, "      -seed <N>         Seed for reproducibility")
	fmt.Fprintln(w, "      -omit <TAGS>      Comma-separated optional attributes to leave out")
	fmt.Fprintln(w, "      -edge-cases <N>   Percentage of files with edge case variations (0-100)")
	fmt.Fprintln(w, "      -edge-case-types <T>")
	fmt.Fprintln(w, "                        Comma-separated types: missing-tags,blank-tags,no-window")
	fmt.Fprintln(w, "      -corrupt <TARGETS>")
	fmt.Fprintln(w, "                        Damaged files as type:index pairs, e.g. truncated:2,garbage:3")
	fmt.Fprintln(w, "                        Types: truncated, missing-identity, garbage, odd-pixel-length")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  -config <FILE>        YAML configuration (services, credentials, workers)")
	fmt.Fprintln(w, "  -log-level <LEVEL>    debug, info, warn, error")
	fmt.Fprintln(w, "  -version              Show version")
	fmt.Fprintln(w, "  -help                 Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  CXR_INFERENCE_URL, CXR_ARCHIVE_URL, CXR_ARCHIVE_USERNAME, CXR_ARCHIVE_PASSWORD,")
	fmt.Fprintln(w, "  CXR_STORAGE_ENDPOINT, CXR_STORAGE_BUCKET, CXR_WORKERS, CXR_LOG_LEVEL (also read from .env)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  # Generate samples, one of them truncated")
	fmt.Fprintln(w, "  cxrreport generate -n 3 -out dicom_samples -corrupt truncated:2")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Score them, then write and upload the reports")
	fmt.Fprintln(w, "  cxrreport process dicom_samples results.json -resize")
	fmt.Fprintln(w, "  cxrreport report results.json -out results -upload")
}
