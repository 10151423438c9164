package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// PredictionArchiveStore lists predictions eligible for archival.
type PredictionArchiveStore interface {
	ListCreatedBefore(ctx context.Context, before time.Time) ([]domain.Prediction, error)
}

// Archiver implements domain.Archiver by writing old predictions to JSONL
// objects. Rows are not deleted from the primary store.
type Archiver struct {
	writer domain.BlobWriter
	preds  PredictionArchiveStore
}

func NewArchiver(writer domain.BlobWriter, preds PredictionArchiveStore) *Archiver {
	return &Archiver{writer: writer, preds: preds}
}

// ArchivePredictions uploads every prediction created before the cutoff to
// archive/predictions/YYYY-MM.jsonl (month of the cutoff) and returns the
// number of records written. Re-running for the same month overwrites the
// object.
func (a *Archiver) ArchivePredictions(ctx context.Context, before time.Time) (int64, error) {
	preds, err := a.preds.ListCreatedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive predictions query: %w", err)
	}
	if len(preds) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(preds)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive predictions marshal: %w", err)
	}

	path := archivePath("predictions", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive predictions upload: %w", err)
	}
	return int64(len(preds)), nil
}

//	archive/predictions/2025-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.UTC().Format("2006-01"))
}

func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*Archiver)(nil)
