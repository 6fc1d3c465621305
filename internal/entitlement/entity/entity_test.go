package entity

import (
	"testing"
	"time"

	couponentity "github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestPlans(t *testing.T) {
	assert.Equal(t, int64(500), PlanPro.Spec().GenerationLimit)
	assert.Equal(t, Unlimited, PlanEnterprise.Spec().StorageMB)
	assert.Equal(t, int64(9999), PlanPro.Spec().Price(CycleYearly))
	assert.Equal(t, PlanFree.Spec(), Plan("gold").Spec())
	assert.True(t, PlanEnterprise.Outranks(PlanPro))
	assert.False(t, PlanFree.Outranks(PlanFree))
	assert.False(t, Plan("gold").Valid())
}

func TestSubscription_ChangePlan(t *testing.T) {
	s := NewSubscription("id", "alice", PlanFree, CycleMonthly, now)
	assert.Equal(t, now.Add(30*24*time.Hour), s.PeriodEnd)

	s.GenerationCount = 42
	s.CancelAtPeriodEnd = true
	s.ChangePlan(PlanPro, CycleYearly, now)

	assert.Equal(t, int64(500), s.GenerationLimit)
	assert.Equal(t, now.Add(365*24*time.Hour), s.PeriodEnd)
	assert.Equal(t, int64(42), s.GenerationCount)
	assert.False(t, s.CancelAtPeriodEnd)
}

func TestSubscription_Quota(t *testing.T) {
	s := NewSubscription("id", "alice", PlanFree, CycleMonthly, now)
	s.GenerationCount = 99
	q := s.Quota()
	assert.True(t, q.Allowed)
	assert.Equal(t, int64(1), q.Remaining)

	s.GenerationCount = 150
	q = s.Quota()
	assert.False(t, q.Allowed)
	assert.Zero(t, q.Remaining)

	s.UnlimitedGeneration = true
	q = s.Quota()
	assert.True(t, q.Allowed)
	assert.True(t, q.Unlimited)
}

func TestSubscription_ApplyGrant(t *testing.T) {
	tests := []struct {
		name  string
		plan  Plan
		typ   couponentity.Type
		value int
		check func(t *testing.T, s Subscription)
	}{
		{"unlimited", PlanFree, couponentity.TypeUnlimitedGeneration, 0, func(t *testing.T, s Subscription) {
			assert.True(t, s.UnlimitedGeneration)
		}},
		{"admin elevation", PlanFree, couponentity.TypeAdminElevation, 0, func(t *testing.T, s Subscription) {
			assert.True(t, s.UnlimitedGeneration)
		}},
		{"metered sets limit", PlanPro, couponentity.TypeMeteredGeneration, 100, func(t *testing.T, s Subscription) {
			assert.Equal(t, int64(100), s.GenerationLimit)
		}},
		{"quota boost adds", PlanFree, couponentity.TypeQuotaBoost, 50, func(t *testing.T, s Subscription) {
			assert.Equal(t, int64(150), s.GenerationLimit)
		}},
		{"quota boost keeps unlimited", PlanEnterprise, couponentity.TypeQuotaBoost, 50, func(t *testing.T, s Subscription) {
			assert.Equal(t, Unlimited, s.GenerationLimit)
		}},
		{"storage boost", PlanFree, couponentity.TypeStorageBoost, 400, func(t *testing.T, s Subscription) {
			assert.Equal(t, int64(500), s.StorageLimitMB)
		}},
		{"discount clamps", PlanFree, couponentity.TypeDiscount, 130, func(t *testing.T, s Subscription) {
			assert.Equal(t, 100, s.DiscountPercent)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSubscription("id", "alice", tt.plan, CycleMonthly, now)
			require.NoError(t, s.ApplyGrant(tt.typ, tt.value, now))
			tt.check(t, s)
		})
	}

	s := NewSubscription("id", "alice", PlanFree, CycleMonthly, now)
	assert.ErrorIs(t, s.ApplyGrant("bogus", 1, now), ErrUnsupportedGrant)
}

func TestSubscription_TakeDiscount(t *testing.T) {
	s := NewSubscription("id", "alice", PlanFree, CycleMonthly, now)
	s.DiscountPercent = 20

	charged, pct := s.TakeDiscount(999)
	assert.Equal(t, int64(799), charged)
	assert.Equal(t, 20, pct)
	assert.Zero(t, s.DiscountPercent)

	charged, pct = s.TakeDiscount(999)
	assert.Equal(t, int64(999), charged)
	assert.Zero(t, pct)
}

func TestSubscription_Lapsed(t *testing.T) {
	s := NewSubscription("id", "alice", PlanPro, CycleMonthly, now)
	assert.False(t, s.Lapsed(s.PeriodEnd))

	s.CancelAtPeriodEnd = true
	assert.False(t, s.Lapsed(s.PeriodEnd.Add(-time.Second)))
	assert.True(t, s.Lapsed(s.PeriodEnd))
}

func TestGrantValue(t *testing.T) {
	v := 7
	assert.Equal(t, 7, GrantValue(couponentity.TypeQuotaBoost, &v))
	assert.Equal(t, couponentity.DefaultMeteredValue, GrantValue(couponentity.TypeMeteredGeneration, nil))
	assert.Zero(t, GrantValue(couponentity.TypeUnlimitedGeneration, nil))
}
