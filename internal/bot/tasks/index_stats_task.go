package tasks

import (
	"context"
	"fmt"
)

// newIndexStatsTask creates the scheduled task function that reports the
// size of the message index.
func newIndexStatsTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "index_stats")

	return func(ctx context.Context) error {
		count, err := deps.Index.DocCount()
		if err != nil {
			log.ErrorContext(ctx, "Failed to read index document count", "error", err)
			return fmt.Errorf("index stats failed: %w", err)
		}

		log.InfoContext(ctx, "Index statistics", "indexed_messages", count)
		return nil
	}
}
