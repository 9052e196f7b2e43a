package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
)

func TestSchedulesParse(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	audit, err := parser.Parse(AuditSchedule)
	require.NoError(t, err)
	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), audit.Next(from))

	reset, err := parser.Parse(UsageResetSchedule)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), reset.Next(from))
}

func TestGuarded_RecoversPanics(t *testing.T) {
	require.NotPanics(t, guarded("boom", func(ctx context.Context) error {
		panic("boom")
	}))

	ran := false
	guarded("err", func(ctx context.Context) error {
		ran = true
		_, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		return errors.New("failed")
	})()
	require.True(t, ran)
}

func TestNewScheduler_RegistersJobs(t *testing.T) {
	c, err := NewScheduler(nil, 180, false)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 2)
}
