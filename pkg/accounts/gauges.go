package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/platinummonkey/storefront/pkg/storage/postgres"
	"github.com/robfig/cron/v3"
)

const gaugeRefreshTimeout = 30 * time.Second

// GaugeReporter refreshes the account and connection pool gauges on a cron schedule
type GaugeReporter struct {
	directory Directory
	db        *sql.DB // nil for the memory backend
	metrics   *observability.Metrics
	logger    *observability.Logger
	cron      *cron.Cron
}

// NewGaugeReporter creates a reporter. db may be nil.
func NewGaugeReporter(directory Directory, db *sql.DB, metrics *observability.Metrics, logger *observability.Logger) *GaugeReporter {
	return &GaugeReporter{
		directory: directory,
		db:        db,
		metrics:   metrics,
		logger:    logger,
	}
}

// Report refreshes every gauge once
func (r *GaugeReporter) Report(ctx context.Context) error {
	all, err := r.directory.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}

	var admins int
	for _, a := range all {
		if a.IsAdmin {
			admins++
		}
	}
	r.metrics.AccountsTotal.Set(float64(len(all)))
	r.metrics.AdminsTotal.Set(float64(admins))

	postgres.ReportPoolStats(r.db, r.metrics)
	return nil
}

func (r *GaugeReporter) refresh() {
	defer observability.RecoverPanic(r.logger, "account gauge refresh")

	ctx, cancel := context.WithTimeout(context.Background(), gaugeRefreshTimeout)
	defer cancel()

	if err := r.Report(ctx); err != nil {
		r.logger.WithError(err).Warn("Account gauge refresh failed")
	}
}

// Start reports once and then on every tick of schedule (standard cron
// syntax or descriptors such as "@every 1m")
func (r *GaugeReporter) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, r.refresh); err != nil {
		return fmt.Errorf("invalid gauge schedule %q: %w", schedule, err)
	}

	r.refresh()
	c.Start()
	r.cron = c

	r.logger.WithField("schedule", schedule).Info("Account gauge reporter started")
	return nil
}

// Stop halts the schedule and waits for a running refresh, bounded by ctx
func (r *GaugeReporter) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
