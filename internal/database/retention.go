package database

import (
	"context"
	"log/slog"
	"time"
)

// RunRetention deletes predictions older than retention every interval until ctx is done.
// A non-positive retention keeps history forever.
func RunRetention(ctx context.Context, repo *Repository, retention, interval time.Duration) {
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		purgeOnce(ctx, repo, retention)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func purgeOnce(ctx context.Context, repo *Repository, retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	removed, err := repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("History cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("History cleanup completed", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	}
}
