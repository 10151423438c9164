package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

type memBlobs struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = b
	m.types[path] = contentType
	return nil
}

func (m *memBlobs) Get(_ context.Context, path string) (io.ReadCloser, error) {
	b, ok := m.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memBlobs) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

type listStore []domain.Prediction

func (l listStore) ListCreatedBefore(_ context.Context, before time.Time) ([]domain.Prediction, error) {
	var out []domain.Prediction
	for _, p := range l {
		if p.CreatedAt.Before(before) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestArchivePredictions(t *testing.T) {
	blobs := newMemBlobs()
	cutoff := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	store := listStore{
		{ID: "p1", EventName: "A & B", CreatedAt: cutoff.Add(-48 * time.Hour)},
		{ID: "p2", CreatedAt: cutoff.Add(-time.Hour)},
		{ID: "p3", CreatedAt: cutoff.Add(time.Hour)},
	}

	n, err := NewArchiver(blobs, store).ArchivePredictions(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	body := blobs.objects["archive/predictions/2025-03.jsonl"]
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"p1"`)
	assert.Contains(t, lines[0], `"eventName":"A & B"`)
	assert.Equal(t, "application/x-ndjson", blobs.types["archive/predictions/2025-03.jsonl"])
}

func TestArchivePredictions_NothingToArchive(t *testing.T) {
	blobs := newMemBlobs()
	n, err := NewArchiver(blobs, listStore{}).ArchivePredictions(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, blobs.objects)
}

func TestTrainingMetricsLoader(t *testing.T) {
	blobs := newMemBlobs()
	loader := NewTrainingMetricsLoader(blobs, "")

	_, err := loader.Load(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	blobs.objects[DefaultTrainingMetricsPath] = []byte(`{"trainedAt":"2025-02-01T00:00:00Z","samples":1200,"accuracy":{"hybrid":0.61}}`)
	tm, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1200, tm.Samples)
	assert.Equal(t, 0.61, tm.Accuracy["hybrid"])

	blobs.objects[DefaultTrainingMetricsPath] = []byte(`{broken`)
	_, err = loader.Load(context.Background())
	assert.Error(t, err)
}

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://minio.local:9000", normaliseEndpoint("minio.local:9000", true))
	assert.Equal(t, "http://minio.local:9000", normaliseEndpoint("minio.local:9000", false))
	assert.Equal(t, "http://x", normaliseEndpoint("http://x", true))
}
