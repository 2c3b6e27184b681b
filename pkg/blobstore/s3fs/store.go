// Package s3fs implements blobstore.Store on Amazon S3 or an S3-compatible
// endpoint (MinIO, LocalStack). Objects are keyed by hex digest, optionally
// under a configured prefix.
package s3fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"

	"github.com/marmos91/acquire/pkg/blobstore"
	"github.com/marmos91/acquire/pkg/metrics"
)

// Config configures the S3-backed blob store.
type Config struct {
	Bucket    string
	KeyPrefix string
	Region    string
	Endpoint  string // non-empty for S3-compatible stores (MinIO, LocalStack)
}

// Store is an S3-backed blobstore.Store.
type Store struct {
	client  *awss3.Client
	bucket  string
	prefix  string
	metrics *metrics.BlobStoreMetrics
}

// New builds a Store from cfg, loading AWS credentials from the standard
// SDK credential chain (environment, shared config, EC2/ECS role).
func New(ctx context.Context, cfg Config, m *metrics.BlobStoreMetrics) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3fs: bucket is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3fs: failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.KeyPrefix, metrics: m}, nil
}

func (s *Store) key(digestHex string) string {
	if s.prefix == "" {
		return digestHex
	}
	return s.prefix + "/" + digestHex
}

func (s *Store) BlobsExist(ctx context.Context, digests []string) (map[string]bool, error) {
	result := make(map[string]bool, len(digests))
	present := 0
	for _, d := range digests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(d)),
		})
		switch {
		case err == nil:
			result[d] = true
			present++
		case isNotFound(err):
			result[d] = false
		default:
			return nil, fmt.Errorf("s3fs: HeadObject(%q): %w", d, err)
		}
	}
	s.metrics.ObserveExistsBatch(len(digests), present)
	return result, nil
}

func (s *Store) Put(ctx context.Context, digestHex string, data []byte) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(digestHex)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		err = fmt.Errorf("s3fs: PutObject(%q): %w", digestHex, err)
	}
	s.metrics.ObservePut("s3fs", int64(len(data)), time.Since(start), err)
	return err
}

func (s *Store) Get(ctx context.Context, digestHex string) ([]byte, error) {
	start := time.Now()
	data, err := s.get(ctx, digestHex)
	s.metrics.ObserveGet("s3fs", time.Since(start), err)
	return data, err
}

func (s *Store) get(ctx context.Context, digestHex string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(digestHex)),
	})
	if isNotFound(err) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("s3fs: GetObject(%q): %w", digestHex, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3fs: reading body of %q: %w", digestHex, err)
	}
	return data, nil
}

func (s *Store) Close() error {
	return nil
}

// isNotFound reports whether err represents a missing S3 object, covering
// both the typed NoSuchKey/NotFound errors and the generic API error codes
// some S3-compatible implementations return instead.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "404"
	}
	return false
}
