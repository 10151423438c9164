package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/sportspulse/internal/domain"
)

// ArchiveJob exports predictions older than retentionDays to cold storage.
// The cutoff is computed when the job runs.
func ArchiveJob(spec string, archiver domain.Archiver, retentionDays int, logger *slog.Logger) Job {
	return Job{
		Name:      JobArchive,
		Spec:      spec,
		Exclusive: true,
		Timeout:   30 * time.Minute,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
			logger.InfoContext(ctx, "starting archive run",
				slog.Time("cutoff", cutoff),
				slog.Int("retention_days", retentionDays),
			)

			n, err := archiver.ArchivePredictions(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("archiving predictions before %v: %w", cutoff, err)
			}
			logger.InfoContext(ctx, "archive run complete", slog.Int64("predictions_archived", n))
			return nil
		},
	}
}
