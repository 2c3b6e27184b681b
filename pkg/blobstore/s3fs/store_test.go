//go:build integration

package s3fs

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/acquire/pkg/blobstore"
)

// localstackEndpoint resolves the test S3 endpoint, defaulting to the
// conventional LocalStack port like the teacher's block-store S3 tests.
func localstackEndpoint() string {
	if e := os.Getenv("LOCALSTACK_ENDPOINT"); e != "" {
		return e
	}
	return "http://localhost:4566"
}

func newTestBucket(t *testing.T) (string, func()) {
	t.Helper()
	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err)

	endpoint := localstackEndpoint()
	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = &endpoint
		o.UsePathStyle = true
	})

	bucket := fmt.Sprintf("acquire-blobstore-test-%d", time.Now().UnixNano())
	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(bucket)})
	require.NoError(t, err)

	return bucket, func() {
		_, _ = client.DeleteBucket(ctx, &awss3.DeleteBucketInput{Bucket: aws.String(bucket)})
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	bucket, cleanup := newTestBucket(t)
	defer cleanup()

	s, err := New(context.Background(), Config{Bucket: bucket, Endpoint: localstackEndpoint(), Region: "us-east-1"}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "abc123", []byte("payload")))

	got, err := s.Get(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}

func TestStore_Get_MissingReturnsErrNotFound(t *testing.T) {
	bucket, cleanup := newTestBucket(t)
	defer cleanup()

	s, err := New(context.Background(), Config{Bucket: bucket, Endpoint: localstackEndpoint(), Region: "us-east-1"}, nil)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_BlobsExist_ReportsPartialPresence(t *testing.T) {
	bucket, cleanup := newTestBucket(t)
	defer cleanup()

	s, err := New(context.Background(), Config{Bucket: bucket, Endpoint: localstackEndpoint(), Region: "us-east-1"}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "present", []byte("x")))

	result, err := s.BlobsExist(ctx, []string{"present", "absent"})
	require.NoError(t, err)
	require.True(t, result["present"])
	require.False(t, result["absent"])
}
