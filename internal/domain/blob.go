package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves data from object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver moves old predictions to cold storage.
type Archiver interface {
	ArchivePredictions(ctx context.Context, before time.Time) (int64, error)
}

// TrainingMetrics is the summary the offline training pipeline publishes for
// each model. Fields are passed through untouched.
type TrainingMetrics struct {
	TrainedAt time.Time          `json:"trainedAt"`
	Samples   int                `json:"samples"`
	Accuracy  map[string]float64 `json:"accuracy"`
}
