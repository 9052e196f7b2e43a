package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/aliuyar1234/formforge/internal/audit"
	"github.com/aliuyar1234/formforge/internal/usage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	// AuditSchedule runs the audit pruning daily at 03:00 UTC.
	AuditSchedule = "0 3 * * *"

	// UsageResetSchedule runs the paid-plan usage reset on the first of each month.
	UsageResetSchedule = "0 0 1 * *"
)

// RunAuditRetention deletes audit entries older than retentionDays.
func RunAuditRetention(ctx context.Context, pool *pgxpool.Pool, retentionDays int) error {
	log.Info().Int("audit_retention_days", retentionDays).Msg("Starting audit retention job")
	start := time.Now()

	deleted, err := audit.NewReader(pool).DeleteOlderThan(ctx, retentionDays)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune audit log")
		return fmt.Errorf("audit cleanup failed: %w", err)
	}

	log.Info().
		Int64("audit_entries_deleted", deleted).
		Dur("duration", time.Since(start)).
		Msg("Audit retention job completed")

	return nil
}

// RunUsageReset zeroes the monthly AI counters of paid plans.
func RunUsageReset(ctx context.Context, pool *pgxpool.Pool) error {
	start := time.Now()

	reset, err := usage.NewGate(pool).ResetMonthly(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reset monthly AI usage")
		return fmt.Errorf("usage reset failed: %w", err)
	}

	log.Info().
		Int64("users_reset", reset).
		Dur("duration", time.Since(start)).
		Msg("Monthly usage reset completed")

	return nil
}

// NewScheduler registers the retention and usage jobs on a UTC cron. In dev
// the audit job runs every minute so it can be observed locally.
func NewScheduler(pool *pgxpool.Pool, auditRetentionDays int, isDev bool) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	auditSchedule := AuditSchedule
	if isDev {
		auditSchedule = "* * * * *"
	}

	if _, err := c.AddFunc(auditSchedule, guarded("audit retention", func(ctx context.Context) error {
		return RunAuditRetention(ctx, pool, auditRetentionDays)
	})); err != nil {
		return nil, fmt.Errorf("failed to schedule audit retention job: %w", err)
	}

	if _, err := c.AddFunc(UsageResetSchedule, guarded("usage reset", func(ctx context.Context) error {
		return RunUsageReset(ctx, pool)
	})); err != nil {
		return nil, fmt.Errorf("failed to schedule usage reset job: %w", err)
	}

	return c, nil
}

func guarded(name string, job func(ctx context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("job", name).Msg("Scheduled job panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := job(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
		}
	}
}
