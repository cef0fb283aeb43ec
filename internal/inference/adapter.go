// Package inference adapts decoded pixel arrays to the scoring model: it
// enforces the input shape, applies the model preprocessing and turns the
// service reply into validated scores.
package inference

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/mrsinham/cxrreport/internal/imaging"
	"github.com/mrsinham/cxrreport/internal/results"
)

// DefaultResizeTo is the model input size.
const DefaultResizeTo = 224

// Prediction is the outcome of one scoring call.
type Prediction struct {
	Scores   results.Scores
	Features []float64 // only when requested
}

// Adapter prepares images for a Service and validates its replies.
type Adapter struct {
	Service Service

	Weights  string
	UseCUDA  bool
	Resize   bool
	ResizeTo int
	Features bool

	// Limiter bounds the request rate to the service. Nil means unlimited.
	Limiter *rate.Limiter
}

// NewAdapter returns an Adapter with default weights and input size.
func NewAdapter(svc Service) *Adapter {
	return &Adapter{Service: svc, Weights: DefaultWeights, ResizeTo: DefaultResizeTo}
}

// Score scores one decoded image. Every failure is an *Error and no
// partial scores are ever returned.
func (a *Adapter) Score(ctx context.Context, px imaging.Pixels) (Prediction, error) {
	img, err := a.Preprocess(px)
	if err != nil {
		return Prediction{}, wrap(err)
	}

	if a.Limiter != nil {
		if err := a.Limiter.Wait(ctx); err != nil {
			return Prediction{}, wrap(fmt.Errorf("rate limit: %w", err))
		}
	}

	weights := a.Weights
	if weights == "" {
		weights = DefaultWeights
	}
	device := "cpu"
	if a.UseCUDA {
		device = "cuda"
	}

	resp, err := a.Service.Predict(ctx, Request{
		Weights:  weights,
		Device:   device,
		Features: a.Features,
		Image:    img,
	})
	if err != nil {
		return Prediction{}, wrap(err)
	}

	scores, err := toScores(resp)
	if err != nil {
		return Prediction{}, wrap(err)
	}
	pred := Prediction{Scores: scores}
	if a.Features {
		pred.Features = append([]float64(nil), resp.Features...)
	}
	return pred, nil
}

// Preprocess reduces channels, checks the shape, center crops and
// optionally resizes px into the wire image.
func (a *Adapter) Preprocess(px imaging.Pixels) (Image, error) {
	m, err := px.ReduceChannels().Matrix()
	if err != nil {
		return Image{}, err
	}
	m = imaging.CenterCrop(m)
	if a.Resize {
		size := a.ResizeTo
		if size <= 0 {
			size = DefaultResizeTo
		}
		m = imaging.Resize(m, size)
	}

	rows, cols := m.Dims()
	data := make([]float32, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, float32(m.At(i, j)))
		}
	}
	return Image{Rows: rows, Cols: cols, Data: data}, nil
}

func toScores(resp *Response) (results.Scores, error) {
	if resp == nil || len(resp.Pathologies) == 0 {
		return nil, fmt.Errorf("%w: empty reply", ErrIncomplete)
	}
	if len(resp.Pathologies) != len(resp.Predictions) {
		return nil, fmt.Errorf("%w: %d labels for %d predictions",
			ErrIncomplete, len(resp.Pathologies), len(resp.Predictions))
	}

	scores := make(results.Scores, len(resp.Pathologies))
	for i, label := range resp.Pathologies {
		v := resp.Predictions[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s has non-finite score", ErrIncomplete, label)
		}
		scores[i] = results.Score{Label: results.Pathology(label), Value: v}
	}
	if err := scores.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	return scores, nil
}
