package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatsWorker periodically rolls up daily statistics and closes expired jobs.
type StatsWorker struct {
	Analytics *AnalyticsService
	Interval  time.Duration
	Log       *zap.Logger
}

func NewStatsWorker(analytics *AnalyticsService, interval time.Duration, log *zap.Logger) *StatsWorker {
	return &StatsWorker{Analytics: analytics, Interval: interval, Log: log}
}

// Run syncs once immediately and then on every tick until ctx is done.
func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Sync(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Sync(ctx)
		}
	}
}

// Sync refreshes yesterday's and today's rows. Failures are logged and retried next tick.
func (w *StatsWorker) Sync(parent context.Context) {
	// Prevent one slow cycle from hanging forever
	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	closed, err := w.Analytics.CloseExpiredJobs(ctx)
	if err != nil {
		w.Log.Error("close expired jobs", zap.Error(err))
	} else if closed > 0 {
		w.Log.Info("closed expired jobs", zap.Int64("count", closed))
	}

	now := w.Analytics.now()
	for _, day := range []time.Time{now.AddDate(0, 0, -1), now} {
		if _, err := w.Analytics.Rollup(ctx, day); err != nil {
			w.Log.Error("daily stats rollup", zap.String("date", day.Format(dateLayout)), zap.Error(err))
		}
	}
	w.Log.Debug("stats cycle finished")
}
