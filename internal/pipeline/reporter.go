package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/mrsinham/cxrreport/internal/archive"
	"github.com/mrsinham/cxrreport/internal/dicom"
	"github.com/mrsinham/cxrreport/internal/dicom/sr"
	"github.com/mrsinham/cxrreport/internal/results"
	"github.com/mrsinham/cxrreport/internal/storage"
)

// Reporter turns scored records into SR files and optionally publishes
// them. Items fail independently.
type Reporter struct {
	Synthesizer *sr.Synthesizer
	Load        Loader

	// OutputDir receives the SR files. It is created when missing.
	OutputDir string

	// Publisher uploads each SR when set.
	Publisher *archive.Publisher
	// PublishEvidence also uploads the source image of each SR.
	PublishEvidence bool

	// Mirror copies each SR to object storage when set.
	Mirror storage.Mirror

	Logger *zap.Logger
}

// NewReporter returns a Reporter writing to outputDir.
func NewReporter(synth *sr.Synthesizer, outputDir string, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{
		Synthesizer: synth,
		Load:        dicom.LoadEvidence,
		OutputDir:   outputDir,
		Logger:      logger,
	}
}

// ReportOutcome is the per-record result of a report run.
type ReportOutcome struct {
	FilePath string
	SRPath   string
	Receipt  *archive.Receipt
	Err      error
}

// Run reports every record in order. Once ctx is canceled the remaining
// records fail with kind canceled.
func (r *Reporter) Run(ctx context.Context, records []results.Record) (Summary, []ReportOutcome) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var summary Summary
	outcomes := make([]ReportOutcome, 0, len(records))

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		for _, rec := range records {
			summary.Attempted++
			summary.fail(rec.FilePath, KindWrite, err)
			outcomes = append(outcomes, ReportOutcome{FilePath: rec.FilePath, Err: err})
		}
		return summary, outcomes
	}

	for _, rec := range records {
		summary.Attempted++
		out, kind := r.reportOne(ctx, rec)
		outcomes = append(outcomes, out)
		if out.Err != nil {
			summary.fail(rec.FilePath, kind, out.Err)
			logger.Warn("Failed to report result",
				zap.String("file_path", rec.FilePath),
				zap.String("kind", kind),
				zap.Error(out.Err))
			continue
		}
		summary.Succeeded++
		logger.Info("Structured report written",
			zap.String("file_path", rec.FilePath),
			zap.String("sr_path", out.SRPath))
	}
	return summary, outcomes
}

// RunFile reads a results file and reports it. Entries of the file that
// cannot be read back as records count as invalid_result failures after the
// records; only an unreadable file is an error.
func (r *Reporter) RunFile(ctx context.Context, resultsPath string) (Summary, []ReportOutcome, error) {
	records, rejected, err := results.ReadFile(resultsPath)
	if err != nil {
		return Summary{}, nil, err
	}

	summary, outcomes := r.Run(ctx, records)
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, rej := range rejected {
		err := &sr.InvalidResultError{FilePath: rej.Label(), Reason: rej.Reason}
		summary.Attempted++
		summary.fail(rej.Label(), KindInvalidResult, err)
		outcomes = append(outcomes, ReportOutcome{FilePath: rej.FilePath, Err: err})
		logger.Warn("Failed to report result",
			zap.String("file_path", rej.Label()),
			zap.String("kind", KindInvalidResult),
			zap.Error(err))
	}
	return summary, outcomes, nil
}

func (r *Reporter) reportOne(ctx context.Context, rec results.Record) (ReportOutcome, string) {
	out := ReportOutcome{FilePath: rec.FilePath}
	fail := func(err error) (ReportOutcome, string) {
		out.Err = err
		return out, classify(err)
	}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out, string(results.KindCanceled)
	}
	if rec.IsError() {
		return fail(&sr.InvalidResultError{FilePath: rec.FilePath, Reason: fmt.Sprintf("%s: %s", rec.Err.Kind, rec.Err.Message)})
	}

	ev, err := r.Load(rec.FilePath)
	if err != nil {
		return fail(err)
	}
	doc, err := r.Synthesizer.Synthesize(rec, ev)
	if err != nil {
		return fail(err)
	}
	srPath, err := sr.WriteNextTo(doc, r.OutputDir)
	if err != nil {
		return fail(err)
	}
	out.SRPath = srPath

	if r.Publisher != nil {
		receipt, err := r.Publisher.Publish(ctx, srPath)
		if err != nil {
			out.Err = fmt.Errorf("publish %s: %w", srPath, err)
			return out, KindUpload
		}
		out.Receipt = receipt
		if r.PublishEvidence {
			if _, err := r.Publisher.Publish(ctx, rec.FilePath); err != nil {
				out.Err = fmt.Errorf("publish evidence %s: %w", rec.FilePath, err)
				return out, KindUpload
			}
		}
	}

	if r.Mirror != nil {
		key := path.Join("sr", sr.FileName(rec.FilePath))
		if err := r.Mirror.Put(ctx, key, srPath); err != nil {
			out.Err = err
			return out, KindMirror
		}
	}
	return out, ""
}
