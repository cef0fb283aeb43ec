// Package storage mirrors run artifacts (reports, results files) to an S3
// compatible object store.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Mirror stores a local file under key.
type Mirror interface {
	Put(ctx context.Context, key, path string) error
}

// Options configure a MinioMirror.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// Prefix is prepended to every key.
	Prefix string
}

// MinioMirror is a Mirror backed by a minio client.
type MinioMirror struct {
	client *minio.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewMinioMirror connects a minio client to opts.Endpoint.
func NewMinioMirror(opts Options, logger *zap.Logger) (*MinioMirror, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinioMirror{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
		logger: logger,
	}, nil
}

// Put uploads the file at path as an object named key.
func (m *MinioMirror) Put(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	object := strings.TrimLeft(key, "/")
	if m.prefix != "" {
		object = m.prefix + "/" + object
	}
	_, err = m.client.PutObject(ctx, m.bucket, object, f, info.Size(), minio.PutObjectOptions{
		ContentType: ContentType(path),
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", m.bucket, object, err)
	}
	m.logger.Debug("Mirrored artifact", zap.String("bucket", m.bucket), zap.String("object", object))
	return nil
}

// ContentType returns the MIME type stored with an artifact.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dcm":
		return "application/dicom"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}
