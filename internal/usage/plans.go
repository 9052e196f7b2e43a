package usage

import "strings"

// Plan is a subscription tier.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanHobby Plan = "hobby"
	PlanPro   Plan = "pro"
)

// StatusActive is the only subscription status under which a paid plan applies.
const StatusActive = "active"

// Request-count limits per plan. The free limit is lifetime; paid limits
// reset monthly.
const (
	FreeLimit  = 2
	HobbyLimit = 50
	ProLimit   = 500
)

// ParsePlan returns the plan named by s (case-insensitive).
func ParsePlan(s string) (Plan, bool) {
	switch Plan(strings.ToLower(strings.TrimSpace(s))) {
	case PlanFree:
		return PlanFree, true
	case PlanHobby:
		return PlanHobby, true
	case PlanPro:
		return PlanPro, true
	default:
		return "", false
	}
}

// EffectivePlan resolves the plan a user is billed on. A paid plan whose
// subscription is not active falls back to free.
func EffectivePlan(plan string, status *string) Plan {
	p, ok := ParsePlan(plan)
	if !ok || p == PlanFree {
		return PlanFree
	}
	if status == nil || *status != StatusActive {
		return PlanFree
	}
	return p
}

// Limit returns the AI request limit for the plan.
func (p Plan) Limit() int {
	switch p {
	case PlanHobby:
		return HobbyLimit
	case PlanPro:
		return ProLimit
	default:
		return FreeLimit
	}
}

// IsPaid reports whether the plan is hobby or pro.
func (p Plan) IsPaid() bool {
	return p == PlanHobby || p == PlanPro
}

// ResetsMonthly reports whether usage for the plan is reset by the monthly job.
func (p Plan) ResetsMonthly() bool {
	return p.IsPaid()
}
