package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mrsinham/cxrreport/internal/dicom"
)

// Uploader stores one file in an archive.
type Uploader interface {
	Upload(ctx context.Context, path string) (*Receipt, error)
}

// Outcome is the result of publishing one file.
type Outcome struct {
	Path    string
	Receipt *Receipt
	Err     error
}

// Publisher uploads batches of files, continuing past failures.
type Publisher struct {
	Uploader Uploader
	Workers  int
	Limiter  *rate.Limiter
	Logger   *zap.Logger
}

// NewPublisher returns a sequential, unlimited Publisher.
func NewPublisher(u Uploader, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{Uploader: u, Workers: 1, Logger: logger}
}

// Publish uploads one file, honoring the rate limit.
func (p *Publisher) Publish(ctx context.Context, path string) (*Receipt, error) {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	return p.Uploader.Upload(ctx, path)
}

// PublishAll uploads every path and returns one Outcome per path, in input
// order.
func (p *Publisher) PublishAll(ctx context.Context, paths []string) []Outcome {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	outcomes := make([]Outcome, len(paths))
	var g errgroup.Group
	g.SetLimit(max(p.Workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			receipt, err := p.Publish(ctx, path)
			outcomes[i] = Outcome{Path: path, Receipt: receipt, Err: err}
			if err != nil {
				logger.Warn("Failed to send file",
					zap.String("file_path", path),
					zap.Error(err))
				return nil
			}
			logger.Info("File sent", zap.String("file_path", path), zap.String("id", receipt.ID))
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// DiscoverAndPublish uploads every .dcm file under dir.
func (p *Publisher) DiscoverAndPublish(ctx context.Context, dir string) ([]Outcome, error) {
	paths, err := dicom.Discover(dir)
	if err != nil {
		return nil, err
	}
	return p.PublishAll(ctx, paths), nil
}
