package pipeline

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mrsinham/cxrreport/internal/dicom"
	"github.com/mrsinham/cxrreport/internal/dicom/corruption"
	"github.com/mrsinham/cxrreport/internal/imaging"
	"github.com/mrsinham/cxrreport/internal/inference"
	"github.com/mrsinham/cxrreport/internal/results"
)

// fixedScorer answers every image with Cardiomegaly=0.82, Effusion=0.11.
func fixedScorer() *inference.Adapter {
	return inference.NewAdapter(inference.ServiceFunc(func(context.Context, inference.Request) (*inference.Response, error) {
		return &inference.Response{
			Pathologies: []string{"Cardiomegaly", "Effusion"},
			Predictions: []float64{0.82, 0.11},
		}, nil
	}))
}

func generate(t *testing.T, n int, corrupt ...corruption.Target) []dicom.GeneratedFile {
	t.Helper()
	files, err := dicom.GenerateRadiographs(dicom.RadiographOptions{
		NumImages:        n,
		OutputDir:        t.TempDir(),
		Seed:             3,
		Size:             32,
		CorruptionConfig: corruption.Config{Targets: corrupt},
	})
	require.NoError(t, err)
	return files
}

func pathsOf(files []dicom.GeneratedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestAggregator_BatchIsolation(t *testing.T) {
	for _, workers := range []int{1, 4} {
		files := generate(t, 5, corruption.Target{Type: corruption.Truncated, Index: 3})

		agg := NewAggregator(fixedScorer(), zaptest.NewLogger(t))
		agg.Workers = workers
		batch, err := agg.Run(context.Background(), pathsOf(files))
		require.NoError(t, err)

		require.Len(t, batch.Records, 5)
		assert.Equal(t, 5, batch.Processed)
		assert.Equal(t, 4, batch.Succeeded())
		for i, rec := range batch.Records {
			assert.Equal(t, files[i].Path, rec.FilePath, "records keep input order")
			assert.NoError(t, rec.Validate())
			if i == 2 {
				require.True(t, rec.IsError())
				assert.Equal(t, results.KindMalformedEvidence, rec.Err.Kind)
				continue
			}
			assert.False(t, rec.IsError(), "record %d: %+v", i, rec.Err)
		}
	}
}

func TestAggregator_MissingIdentity(t *testing.T) {
	files := generate(t, 2, corruption.Target{Type: corruption.MissingIdentity, Index: 1})

	batch, err := NewAggregator(fixedScorer(), nil).Run(context.Background(), pathsOf(files))
	require.NoError(t, err)
	require.True(t, batch.Records[0].IsError())
	assert.Equal(t, results.KindMalformedEvidence, batch.Records[0].Err.Kind)
	assert.Contains(t, batch.Records[0].Err.Message, "SOPInstanceUID")
	assert.False(t, batch.Records[1].IsError())
}

func TestAggregator_InferenceFailure(t *testing.T) {
	files := generate(t, 1)
	scorer := inference.NewAdapter(inference.ServiceFunc(func(context.Context, inference.Request) (*inference.Response, error) {
		return nil, errors.New("connection refused")
	}))

	batch, err := NewAggregator(scorer, nil).Run(context.Background(), pathsOf(files))
	require.NoError(t, err)
	require.True(t, batch.Records[0].IsError())
	assert.Equal(t, results.KindInference, batch.Records[0].Err.Kind)
	assert.Contains(t, batch.Records[0].Err.Message, "connection refused")
	assert.Equal(t, 1, batch.Processed)
	assert.Equal(t, 0, batch.Succeeded())
}

func TestAggregator_DecodeFailureIsInference(t *testing.T) {
	agg := NewAggregator(fixedScorer(), nil)
	agg.Load = func(path string) (dicom.Evidence, error) { return dicom.Evidence{FilePath: path}, nil }
	agg.Decode = func(string) (imaging.Pixels, error) { return imaging.Pixels{}, dicom.ErrNoPixelData }

	batch, err := agg.Run(context.Background(), []string{"a.dcm"})
	require.NoError(t, err)
	assert.Equal(t, results.KindInference, batch.Records[0].Err.Kind)
}

func TestAggregator_MismatchedPixelsIsInference(t *testing.T) {
	agg := NewAggregator(fixedScorer(), nil)
	agg.Load = func(path string) (dicom.Evidence, error) { return dicom.Evidence{FilePath: path}, nil }
	agg.Decode = func(string) (imaging.Pixels, error) {
		return imaging.Pixels{Shape: []int{8, 8}, Data: make([]float64, 10)}, nil
	}

	batch, err := agg.Run(context.Background(), []string{"a.dcm", "b.dcm"})
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	for _, rec := range batch.Records {
		require.True(t, rec.IsError())
		assert.Equal(t, results.KindInference, rec.Err.Kind)
	}
}

func TestAggregator_Canceled(t *testing.T) {
	files := generate(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := NewAggregator(fixedScorer(), nil).Run(ctx, pathsOf(files))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, batch.Records, 3)
	assert.Equal(t, 0, batch.Processed)
	for _, rec := range batch.Records {
		require.True(t, rec.IsError())
		assert.Equal(t, results.KindCanceled, rec.Err.Kind)
	}

	s := SummarizeBatch(batch)
	assert.Equal(t, Summary{}, s)
}

func TestAggregator_Progress(t *testing.T) {
	files := generate(t, 3)
	var calls []int
	agg := NewAggregator(fixedScorer(), nil)
	agg.ProgressCallback = func(done, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	}
	_, err := agg.Run(context.Background(), pathsOf(files))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

// Whatever the scoring service answers, every record carries exactly one
// of scores and error.
func TestAggregator_RecordInvariant(t *testing.T) {
	property := func(labels []string, values []float64, fail bool) bool {
		svc := inference.ServiceFunc(func(context.Context, inference.Request) (*inference.Response, error) {
			if fail {
				return nil, errors.New("unavailable")
			}
			return &inference.Response{Pathologies: labels, Predictions: values}, nil
		})
		agg := NewAggregator(inference.NewAdapter(svc), nil)
		agg.Load = func(path string) (dicom.Evidence, error) { return dicom.Evidence{FilePath: path}, nil }
		agg.Decode = func(string) (imaging.Pixels, error) {
			return imaging.Pixels{Shape: []int{2, 2}, Data: []float64{0, 1, 2, 3}}, nil
		}

		batch, err := agg.Run(context.Background(), []string{"x.dcm"})
		if err != nil || len(batch.Records) != 1 {
			return false
		}
		rec := batch.Records[0]
		if rec.Validate() != nil {
			return false
		}
		if rec.IsError() {
			return len(rec.Scores) == 0
		}
		for i, sc := range rec.Scores {
			if string(sc.Label) != labels[i] || sc.Value != values[i] || math.IsNaN(sc.Value) {
				return false
			}
		}
		return len(rec.Scores) == len(labels)
	}
	require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 300}))
}

func TestDiscover(t *testing.T) {
	files := generate(t, 3)
	dir := filepath.Dir(files[0].Path)

	paths, err := dicom.Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, pathsOf(files), paths)

	_, err = dicom.Discover(files[0].Path)
	assert.Error(t, err)
}
