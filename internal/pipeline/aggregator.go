// Package pipeline runs the batch stages: scoring every evidence file into
// result records, then turning those records into structured reports.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mrsinham/cxrreport/internal/dicom"
	"github.com/mrsinham/cxrreport/internal/imaging"
	"github.com/mrsinham/cxrreport/internal/inference"
	"github.com/mrsinham/cxrreport/internal/results"
)

// Loader reads the header of an evidence file.
type Loader func(path string) (dicom.Evidence, error)

// Decoder reads the normalized pixels of an evidence file.
type Decoder func(path string) (imaging.Pixels, error)

// Scorer scores decoded pixels.
type Scorer interface {
	Score(ctx context.Context, px imaging.Pixels) (inference.Prediction, error)
}

// Aggregator scores a list of files into result records. A failure on one
// file never stops the batch.
type Aggregator struct {
	Load   Loader
	Decode Decoder
	Scorer Scorer

	// Workers caps concurrent items. Values below 2 run sequentially.
	Workers int

	Logger *zap.Logger

	// ProgressCallback is called after each item with the completed count.
	ProgressCallback func(done, total int)
}

// NewAggregator returns an Aggregator reading files with the DICOM loader
// and decoder.
func NewAggregator(scorer Scorer, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		Load:    dicom.LoadEvidence,
		Decode:  dicom.DecodePixels,
		Scorer:  scorer,
		Workers: 1,
		Logger:  logger,
	}
}

// Batch is the outcome of one aggregation run.
type Batch struct {
	// Records holds one record per input path, in input order.
	Records []results.Record
	// Processed counts attempted items, failed ones included.
	Processed int
}

// Succeeded returns the number of scored records.
func (b *Batch) Succeeded() int {
	n := 0
	for _, r := range b.Records {
		if !r.IsError() {
			n++
		}
	}
	return n
}

// Run processes paths. It always returns one record per path; when ctx is
// canceled the items not yet started get canceled records and Run returns
// ctx.Err() alongside the batch.
func (a *Aggregator) Run(ctx context.Context, paths []string) (*Batch, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	records := make([]results.Record, len(paths))
	var processed, done atomic.Int64

	var g errgroup.Group
	g.SetLimit(max(a.Workers, 1))

	for i, path := range paths {
		if ctx.Err() != nil {
			records[i] = results.NewErrorRecord(path, results.KindCanceled, ctx.Err().Error())
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				records[i] = results.NewErrorRecord(path, results.KindCanceled, err.Error())
				return nil
			}
			processed.Add(1)
			records[i] = a.processOne(ctx, path, logger)
			if a.ProgressCallback != nil {
				a.ProgressCallback(int(done.Add(1)), len(paths))
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := &Batch{Records: records, Processed: int(processed.Load())}
	logger.Info(fmt.Sprintf("Processed %d DICOM files", batch.Processed),
		zap.Int("succeeded", batch.Succeeded()),
		zap.Int("total", len(paths)))
	return batch, ctx.Err()
}

func (a *Aggregator) processOne(ctx context.Context, path string, logger *zap.Logger) results.Record {
	rec, err := a.score(ctx, path)
	if err == nil {
		return rec
	}

	kind := results.KindInference
	var malformed *dicom.MalformedEvidenceError
	if errors.As(err, &malformed) {
		kind = results.KindMalformedEvidence
	}
	logger.Warn("Failed to process DICOM file",
		zap.String("file_path", path),
		zap.String("kind", string(kind)),
		zap.Error(err))
	return results.NewErrorRecord(path, kind, err.Error())
}

func (a *Aggregator) score(ctx context.Context, path string) (results.Record, error) {
	if _, err := a.Load(path); err != nil {
		return results.Record{}, err
	}
	px, err := a.Decode(path)
	if err != nil {
		return results.Record{}, &inference.Error{Cause: err}
	}
	pred, err := a.Scorer.Score(ctx, px)
	if err != nil {
		return results.Record{}, err
	}
	return results.NewScoredRecord(path, pred.Scores)
}
