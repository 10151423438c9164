package s3blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// DefaultTrainingMetricsPath is where the offline training pipeline
// publishes its summary.
const DefaultTrainingMetricsPath = "models/training_metrics.json"

// Reader implements domain.BlobReader.
type Reader struct {
	client *s3.Client
	bucket string
}

func NewReader(c *Client) *Reader {
	return &Reader{client: c.s3, bucket: c.bucket}
}

// Get returns the object body; the caller closes it. A missing object
// yields domain.ErrNotFound.
func (r *Reader) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: get %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: get %s: %w", path, err)
	}
	return out.Body, nil
}

// Exists reports whether path exists using HeadObject.
func (r *Reader) Exists(ctx context.Context, path string) (bool, error) {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3blob: exists %s: %w", path, err)
	}
	return true, nil
}

// TrainingMetricsLoader reads the training summary JSON from a BlobReader.
type TrainingMetricsLoader struct {
	blobs domain.BlobReader
	path  string
}

// NewTrainingMetricsLoader creates a loader for path. An empty path uses
// DefaultTrainingMetricsPath.
func NewTrainingMetricsLoader(blobs domain.BlobReader, path string) *TrainingMetricsLoader {
	if path == "" {
		path = DefaultTrainingMetricsPath
	}
	return &TrainingMetricsLoader{blobs: blobs, path: path}
}

// Load fetches and decodes the summary. A missing object is ErrNotFound.
func (l *TrainingMetricsLoader) Load(ctx context.Context) (domain.TrainingMetrics, error) {
	body, err := l.blobs.Get(ctx, l.path)
	if err != nil {
		return domain.TrainingMetrics{}, err
	}
	defer body.Close()

	var tm domain.TrainingMetrics
	if err := json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(&tm); err != nil {
		return domain.TrainingMetrics{}, fmt.Errorf("s3blob: decode %s: %w", l.path, err)
	}
	return tm, nil
}

// isNotFound matches NoSuchKey, the bare 404 HeadObject returns, and plain
// HTTP 404 responses from S3-compatible providers.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var httpErr interface{ HTTPStatusCode() int }
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}

var (
	_ domain.BlobReader = (*Reader)(nil)
	_ domain.BlobWriter = (*Writer)(nil)
)
