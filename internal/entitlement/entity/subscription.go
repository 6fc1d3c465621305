package entity

import (
	"errors"
	"time"

	couponentity "github.com/shandysiswandi/ktvs/internal/coupon/entity"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

const bytesPerMB = 1 << 20

var ErrUnsupportedGrant = errors.New("entitlement: unsupported coupon type")

type Subscription struct {
	ID                  string
	SubjectID           string
	Plan                Plan
	BillingCycle        BillingCycle
	Status              Status
	PeriodStart         time.Time
	PeriodEnd           time.Time
	CancelAtPeriodEnd   bool
	GenerationLimit     int64
	StorageLimitMB      int64
	APICallsPerDay      int64
	GenerationCount     int64
	StorageUsedBytes    int64
	APICallsToday       int64
	UnlimitedGeneration bool
	DiscountPercent     int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewSubscription starts subjectID on plan for one billing period from now.
func NewSubscription(id, subjectID string, plan Plan, cycle BillingCycle, now time.Time) Subscription {
	s := Subscription{
		ID:        id,
		SubjectID: subjectID,
		CreatedAt: now,
	}
	s.ChangePlan(plan, cycle, now)
	return s
}

// ChangePlan replaces plan, limits and period. Usage counters and coupon
// grants survive the change.
func (s *Subscription) ChangePlan(plan Plan, cycle BillingCycle, now time.Time) {
	spec := plan.Spec()

	s.Plan = plan
	s.BillingCycle = cycle
	s.Status = StatusActive
	s.PeriodStart = now
	s.PeriodEnd = now.Add(cycle.Period())
	s.CancelAtPeriodEnd = false
	s.GenerationLimit = spec.GenerationLimit
	s.StorageLimitMB = spec.StorageMB
	s.APICallsPerDay = spec.APICallsPerDay
	s.UpdatedAt = now
}

// TakeDiscount applies any pending discount grant to price and clears it.
func (s *Subscription) TakeDiscount(price int64) (charged int64, percent int) {
	percent = s.DiscountPercent
	s.DiscountPercent = 0
	return price * int64(100-percent) / 100, percent
}

// ApplyGrant folds a redeemed coupon into the subscription.
func (s *Subscription) ApplyGrant(t couponentity.Type, value int, now time.Time) error {
	switch t {
	case couponentity.TypeUnlimitedGeneration, couponentity.TypeAdminElevation:
		s.UnlimitedGeneration = true
	case couponentity.TypeMeteredGeneration:
		s.GenerationLimit = int64(value)
	case couponentity.TypeQuotaBoost:
		if s.GenerationLimit != Unlimited {
			s.GenerationLimit += int64(value)
		}
	case couponentity.TypeStorageBoost:
		if s.StorageLimitMB != Unlimited {
			s.StorageLimitMB += int64(value)
		}
	case couponentity.TypeDiscount:
		s.DiscountPercent = min(max(value, 0), 100)
	default:
		return ErrUnsupportedGrant
	}

	s.UpdatedAt = now
	return nil
}

type Quota struct {
	Allowed   bool
	Unlimited bool
	Limit     int64
	Used      int64
	Remaining int64
}

func (s Subscription) Quota() Quota {
	if s.UnlimitedGeneration || s.GenerationLimit == Unlimited {
		return Quota{Allowed: true, Unlimited: true, Limit: Unlimited, Used: s.GenerationCount, Remaining: Unlimited}
	}

	return Quota{
		Allowed:   s.GenerationCount < s.GenerationLimit,
		Limit:     s.GenerationLimit,
		Used:      s.GenerationCount,
		Remaining: max(s.GenerationLimit-s.GenerationCount, 0),
	}
}

// StorageLimitBytes is the storage limit in bytes, or Unlimited.
func (s Subscription) StorageLimitBytes() int64 {
	if s.StorageLimitMB == Unlimited {
		return Unlimited
	}
	return s.StorageLimitMB * bytesPerMB
}

// Lapsed reports whether a deferred cancellation has reached its period end.
func (s Subscription) Lapsed(now time.Time) bool {
	return s.CancelAtPeriodEnd && !now.Before(s.PeriodEnd)
}

// GrantValue resolves the value a coupon of type t contributes, filling in
// the metered default when the coupon carries none.
func GrantValue(t couponentity.Type, v *int) int {
	if v != nil {
		return *v
	}
	if t == couponentity.TypeMeteredGeneration {
		return couponentity.DefaultMeteredValue
	}
	return 0
}
