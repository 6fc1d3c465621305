package entity

import "time"

// Unlimited marks a plan limit that is never enforced.
const Unlimited int64 = -1

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

type PlanSpec struct {
	Name              string
	GenerationLimit   int64
	StorageMB         int64
	APICallsPerDay    int64
	PrioritySupport   bool
	CustomBranding    bool
	AdvancedAnalytics bool
	// prices in cents
	PriceMonthly int64
	PriceYearly  int64
	level        int
}

var plans = map[Plan]PlanSpec{
	PlanFree: {
		Name:            "Free",
		GenerationLimit: 100,
		StorageMB:       100,
		APICallsPerDay:  100,
		level:           0,
	},
	PlanPro: {
		Name:            "Pro",
		GenerationLimit: 500,
		StorageMB:       1000,
		APICallsPerDay:  10000,
		PrioritySupport: true,
		CustomBranding:  true,
		PriceMonthly:    999,
		PriceYearly:     9999,
		level:           1,
	},
	PlanEnterprise: {
		Name:              "Enterprise",
		GenerationLimit:   Unlimited,
		StorageMB:         Unlimited,
		APICallsPerDay:    Unlimited,
		PrioritySupport:   true,
		CustomBranding:    true,
		AdvancedAnalytics: true,
		PriceMonthly:      4999,
		PriceYearly:       49999,
		level:             2,
	},
}

func (p Plan) Valid() bool {
	_, ok := plans[p]
	return ok
}

// Spec returns the plan's limits; unknown plans fall back to Free.
func (p Plan) Spec() PlanSpec {
	if s, ok := plans[p]; ok {
		return s
	}
	return plans[PlanFree]
}

// Outranks reports whether p sits above other in the plan hierarchy.
func (p Plan) Outranks(other Plan) bool {
	return p.Spec().level > other.Spec().level
}

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

func (c BillingCycle) Period() time.Duration {
	if c == CycleYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// Price returns what the plan costs for the cycle, in cents.
func (s PlanSpec) Price(c BillingCycle) int64 {
	if c == CycleYearly {
		return s.PriceYearly
	}
	return s.PriceMonthly
}
