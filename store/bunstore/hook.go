package bunstore

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

var _ bun.QueryHook = (*queryLogger)(nil)

// queryLogger reports executed statements to a zap logger.
type queryLogger struct {
	logger     *zap.SugaredLogger
	logQueries bool
	slow       time.Duration
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)

	if event.Err != nil {
		h.logger.Debugw("query failed", "operation", event.Operation(), "query", event.Query, "duration", elapsed, "error", event.Err)
		return
	}
	if h.slow > 0 && elapsed >= h.slow {
		h.logger.Warnw("slow query", "operation", event.Operation(), "query", event.Query, "duration", elapsed)
		return
	}
	if h.logQueries {
		h.logger.Debugw("query", "operation", event.Operation(), "query", event.Query, "duration", elapsed)
	}
}
