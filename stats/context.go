package stats

import "context"

type statisticsContextKey struct{}

// WithStatistics attaches the statistics of a unit of work to the context.
func WithStatistics(ctx context.Context, s *Statistics) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, statisticsContextKey{}, s)
}

// FromContext returns the statistics attached by WithStatistics.
func FromContext(ctx context.Context) (*Statistics, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(statisticsContextKey{}).(*Statistics)
	return s, ok && s != nil
}
