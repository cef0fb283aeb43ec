// Package archive uploads DICOM instances to an Orthanc server through its
// REST API.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// maxErrorBody caps the reply body kept in an UploadError.
const maxErrorBody = 64 << 10

// Receipt is the Orthanc reply to a stored instance.
type Receipt struct {
	ID            string `json:"ID"`
	ParentPatient string `json:"ParentPatient"`
	ParentStudy   string `json:"ParentStudy"`
	ParentSeries  string `json:"ParentSeries"`
	Path          string `json:"Path"`
	Status        string `json:"Status"`
}

// UploadError is a non-200 reply from the archive.
type UploadError struct {
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload rejected: status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Client uploads files to {BaseURL}/instances.
type Client struct {
	BaseURL  string
	Username string
	Password string

	httpClient *http.Client
}

// NewClient returns a Client with a transport timeout.
func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	return NewClientWithHttpClient(baseURL, username, password, &http.Client{Timeout: timeout})
}

// NewClientWithHttpClient returns a Client using the given http.Client.
func NewClientWithHttpClient(baseURL, username, password string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Username:   username,
		Password:   password,
		httpClient: hc,
	}
}

// Upload posts the file at path as a multipart "file" part. A 200 reply is
// success; its JSON body is decoded into the Receipt when possible.
func (c *Client) Upload(ctx context.Context, path string) (*Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	body, contentType, err := multipartBody(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/instances", body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode != http.StatusOK {
		return nil, &UploadError{StatusCode: resp.StatusCode, Body: string(reply)}
	}

	receipt := &Receipt{}
	_ = json.Unmarshal(reply, receipt)
	return receipt, nil
}

func multipartBody(filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "application/dicom")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
