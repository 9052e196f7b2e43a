package usage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEffectivePlan(t *testing.T) {
	require.Equal(t, PlanFree, EffectivePlan("free", nil))
	require.Equal(t, PlanFree, EffectivePlan("free", strPtr("active")))
	require.Equal(t, PlanHobby, EffectivePlan("hobby", strPtr("active")))
	require.Equal(t, PlanPro, EffectivePlan("PRO", strPtr("active")))

	// Paid plans only count while the subscription is active.
	require.Equal(t, PlanFree, EffectivePlan("pro", nil))
	require.Equal(t, PlanFree, EffectivePlan("pro", strPtr("past_due")))
	require.Equal(t, PlanFree, EffectivePlan("hobby", strPtr("canceled")))

	require.Equal(t, PlanFree, EffectivePlan("enterprise", strPtr("active")))
}

func TestPlanLimits(t *testing.T) {
	require.Equal(t, 2, PlanFree.Limit())
	require.Equal(t, 50, PlanHobby.Limit())
	require.Equal(t, 500, PlanPro.Limit())

	require.False(t, PlanFree.ResetsMonthly())
	require.True(t, PlanHobby.ResetsMonthly())
	require.True(t, PlanPro.IsPaid())
}

func TestParsePlan(t *testing.T) {
	p, ok := ParsePlan(" Hobby ")
	require.True(t, ok)
	require.Equal(t, PlanHobby, p)

	_, ok = ParsePlan("gold")
	require.False(t, ok)
}

func TestStatus_Remaining(t *testing.T) {
	require.Equal(t, 1, Status{Plan: PlanFree, Used: 1, Limit: 2}.Remaining())
	require.Equal(t, 0, Status{Plan: PlanFree, Used: 2, Limit: 2}.Remaining())
	require.Equal(t, 0, Status{Plan: PlanFree, Used: 5, Limit: 2}.Remaining())
}

func TestStatus_LimitMessage(t *testing.T) {
	msg := Status{Plan: PlanFree, Used: 2, Limit: 2}.LimitMessage()
	require.Contains(t, msg, "free tier after 2 uses")

	msg = Status{Plan: PlanHobby, Used: 50, Limit: 50}.LimitMessage()
	require.Contains(t, msg, "50 AI requests included in the hobby plan")
}
