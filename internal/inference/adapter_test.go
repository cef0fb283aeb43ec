package inference

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mrsinham/cxrreport/internal/imaging"
	"github.com/mrsinham/cxrreport/internal/results"
)

func ramp(rows, cols int) imaging.Pixels {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i)
	}
	return imaging.Pixels{Shape: []int{rows, cols}, Data: data}
}

func staticService(resp *Response) ServiceFunc {
	return func(context.Context, Request) (*Response, error) { return resp, nil }
}

func TestAdapter_Score(t *testing.T) {
	var got Request
	svc := ServiceFunc(func(_ context.Context, req Request) (*Response, error) {
		got = req
		return &Response{
			Pathologies: []string{"Cardiomegaly", "Effusion"},
			Predictions: []float64{0.82, 0.11},
			Features:    []float64{1, 2},
		}, nil
	})

	a := NewAdapter(svc)
	pred, err := a.Score(context.Background(), ramp(4, 6))
	require.NoError(t, err)

	assert.Equal(t, results.Scores{
		{Label: results.Cardiomegaly, Value: 0.82},
		{Label: results.Effusion, Value: 0.11},
	}, pred.Scores)
	assert.Nil(t, pred.Features, "features were not requested")

	assert.Equal(t, DefaultWeights, got.Weights)
	assert.Equal(t, "cpu", got.Device)
	assert.Equal(t, 4, got.Image.Rows)
	assert.Equal(t, 4, got.Image.Cols)
	// Center crop of a 4x6 ramp keeps columns 1..4.
	assert.Equal(t, float32(1), got.Image.Data[0])
	assert.Equal(t, float32(4), got.Image.Data[3])
}

func TestAdapter_Options(t *testing.T) {
	var got Request
	svc := ServiceFunc(func(_ context.Context, req Request) (*Response, error) {
		got = req
		return &Response{Pathologies: []string{"Mass"}, Predictions: []float64{0.3}, Features: []float64{7, 8, 9}}, nil
	})

	a := NewAdapter(svc)
	a.UseCUDA = true
	a.Resize = true
	a.ResizeTo = 16
	a.Features = true

	pred, err := a.Score(context.Background(), ramp(40, 30))
	require.NoError(t, err)
	assert.Equal(t, "cuda", got.Device)
	assert.True(t, got.Features)
	assert.Equal(t, 16, got.Image.Rows)
	assert.Len(t, got.Image.Data, 16*16)
	assert.Equal(t, []float64{7, 8, 9}, pred.Features)
}

func TestAdapter_RGBReducedToChannelZero(t *testing.T) {
	var got Request
	svc := ServiceFunc(func(_ context.Context, req Request) (*Response, error) {
		got = req
		return &Response{Pathologies: []string{"Mass"}, Predictions: []float64{0.3}}, nil
	})
	px := imaging.Pixels{Shape: []int{2, 2, 3}, Data: []float64{
		1, 9, 9, 2, 9, 9,
		3, 9, 9, 4, 9, 9,
	}}

	_, err := NewAdapter(svc).Score(context.Background(), px)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, got.Image.Data)
}

func TestAdapter_ShapeErrors(t *testing.T) {
	called := false
	svc := ServiceFunc(func(context.Context, Request) (*Response, error) {
		called = true
		return nil, nil
	})
	tests := []struct {
		name string
		px   imaging.Pixels
		want error
	}{
		{"rank 4", imaging.Pixels{Shape: []int{2, 2, 1, 1}, Data: make([]float64, 4)}, ErrRank},
		{"one row", imaging.Pixels{Shape: []int{1, 10}, Data: make([]float64, 10)}, ErrDegenerate},
		{"flat", imaging.Pixels{Shape: []int{10}, Data: make([]float64, 10)}, ErrDegenerate},
		{"short data", imaging.Pixels{Shape: []int{4, 4}, Data: make([]float64, 3)}, ErrShape},
		{"short rgb data", imaging.Pixels{Shape: []int{4, 4, 3}, Data: make([]float64, 5)}, ErrShape},
		{"negative dims", imaging.Pixels{Shape: []int{-4, -4}, Data: make([]float64, 16)}, ErrShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := NewAdapter(svc).Score(context.Background(), tt.px)
			var ie *Error
			require.ErrorAs(t, err, &ie)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, pred.Scores)
		})
	}
	assert.False(t, called, "service must not be called for invalid shapes")
}

func TestAdapter_IncompleteReplies(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
	}{
		{"empty", &Response{}},
		{"nil", nil},
		{"length mismatch", &Response{Pathologies: []string{"A", "B"}, Predictions: []float64{0.1}}},
		{"duplicate label", &Response{Pathologies: []string{"A", "A"}, Predictions: []float64{0.1, 0.2}}},
		{"reserved label", &Response{Pathologies: []string{"file_path"}, Predictions: []float64{0.1}}},
		{"nan", &Response{Pathologies: []string{"A"}, Predictions: []float64{math.NaN()}}},
		{"inf", &Response{Pathologies: []string{"A"}, Predictions: []float64{math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := NewAdapter(staticService(tt.resp)).Score(context.Background(), ramp(4, 4))
			assert.ErrorIs(t, err, ErrIncomplete)
			var ie *Error
			assert.ErrorAs(t, err, &ie)
			assert.Nil(t, pred.Scores)
		})
	}
}

func TestAdapter_ServiceError(t *testing.T) {
	boom := errors.New("boom")
	svc := ServiceFunc(func(context.Context, Request) (*Response, error) { return nil, boom })

	_, err := NewAdapter(svc).Score(context.Background(), ramp(4, 4))
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, boom)
}

func TestAdapter_RateLimitCanceled(t *testing.T) {
	a := NewAdapter(staticService(&Response{Pathologies: []string{"A"}, Predictions: []float64{0.5}}))
	a.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	_, err := a.Score(context.Background(), ramp(4, 4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Score(ctx, ramp(4, 4))
	var ie *Error
	assert.ErrorAs(t, err, &ie)
}

func TestClient_Predict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req Request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "densenet121-res224-all", req.Weights)
		assert.Equal(t, 2, req.Image.Rows)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"pathologies":["Cardiomegaly"],"predictions":[0.5]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 5*time.Second)
	resp, err := c.Predict(context.Background(), Request{
		Weights: DefaultWeights,
		Device:  "cpu",
		Image:   Image{Rows: 2, Cols: 2, Data: []float32{0, 1, 2, 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiomegaly"}, resp.Pathologies)
	assert.Equal(t, []float64{0.5}, resp.Predictions)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 10000), http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewAdapter(NewClient(srv.URL, 5*time.Second))
	_, err := a.Score(context.Background(), ramp(4, 4))
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, err.Error(), "status 503")
	assert.Less(t, len(err.Error()), 5000)
}
