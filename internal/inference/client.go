package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultWeights is the model weights id used when none is configured.
const DefaultWeights = "densenet121-res224-all"

// maxErrorBody caps how much of a failed reply is kept in the error.
const maxErrorBody = 4 << 10

// Image is the wire form of a preprocessed single-channel image.
type Image struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float32 `json:"data"`
}

// Request is the body of a scoring call.
type Request struct {
	Weights  string `json:"weights"`
	Device   string `json:"device"`
	Features bool   `json:"features"`
	Image    Image  `json:"image"`
}

// Response is the service reply. Pathologies and Predictions are parallel.
type Response struct {
	Pathologies []string  `json:"pathologies"`
	Predictions []float64 `json:"predictions"`
	Features    []float64 `json:"features,omitempty"`
}

// Service scores one preprocessed image.
type Service interface {
	Predict(ctx context.Context, req Request) (*Response, error)
}

// Client calls a scoring service over HTTP JSON.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a Client for baseURL with the given transport timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Predict sends req to {BaseURL}/predict.
func (c *Client) Predict(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("predict: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	return &out, nil
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, req Request) (*Response, error)

func (f ServiceFunc) Predict(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
