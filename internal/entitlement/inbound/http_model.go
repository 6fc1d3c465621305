package inbound

import (
	"time"

	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
)

type QuotaResponse struct {
	Allowed   bool  `json:"allowed"`
	Unlimited bool  `json:"unlimited"`
	Limit     int64 `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

func toQuotaResponse(q entity.Quota) QuotaResponse {
	return QuotaResponse{
		Allowed:   q.Allowed,
		Unlimited: q.Unlimited,
		Limit:     q.Limit,
		Used:      q.Used,
		Remaining: q.Remaining,
	}
}

type SubscriptionResponse struct {
	Plan              string        `json:"plan"`
	PlanName          string        `json:"plan_name"`
	BillingCycle      string        `json:"billing_cycle"`
	Status            string        `json:"status"`
	PeriodStart       time.Time     `json:"current_period_start"`
	PeriodEnd         time.Time     `json:"current_period_end"`
	CancelAtPeriodEnd bool          `json:"cancel_at_period_end"`
	Features          FeaturesBlock `json:"features"`
	Usage             UsageBlock    `json:"usage"`
	Quota             QuotaResponse `json:"quota"`
	DiscountPercent   int           `json:"pending_discount_percent,omitempty"`
}

type FeaturesBlock struct {
	GenerationLimit     int64 `json:"generation_limit"`
	StorageLimitMB      int64 `json:"storage_mb"`
	APICallsPerDay      int64 `json:"api_calls_per_day"`
	UnlimitedGeneration bool  `json:"unlimited_generation"`
	PrioritySupport     bool  `json:"priority_support"`
	CustomBranding      bool  `json:"custom_branding"`
	AdvancedAnalytics   bool  `json:"advanced_analytics"`
}

type UsageBlock struct {
	GenerationCount  int64 `json:"generation_count"`
	StorageUsedBytes int64 `json:"storage_used_bytes"`
	APICallsToday    int64 `json:"api_calls_today"`
}

func toSubscriptionResponse(s *entity.Subscription) SubscriptionResponse {
	spec := s.Plan.Spec()
	return SubscriptionResponse{
		Plan:              string(s.Plan),
		PlanName:          spec.Name,
		BillingCycle:      string(s.BillingCycle),
		Status:            string(s.Status),
		PeriodStart:       s.PeriodStart,
		PeriodEnd:         s.PeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Features: FeaturesBlock{
			GenerationLimit:     s.GenerationLimit,
			StorageLimitMB:      s.StorageLimitMB,
			APICallsPerDay:      s.APICallsPerDay,
			UnlimitedGeneration: s.UnlimitedGeneration,
			PrioritySupport:     spec.PrioritySupport,
			CustomBranding:      spec.CustomBranding,
			AdvancedAnalytics:   spec.AdvancedAnalytics,
		},
		Usage: UsageBlock{
			GenerationCount:  s.GenerationCount,
			StorageUsedBytes: s.StorageUsedBytes,
			APICallsToday:    s.APICallsToday,
		},
		Quota:           toQuotaResponse(s.Quota()),
		DiscountPercent: s.DiscountPercent,
	}
}

type UpgradeRequest struct {
	Plan         string `json:"plan"`
	BillingCycle string `json:"billing_cycle"`
}

type UpgradeResponse struct {
	Subscription    SubscriptionResponse `json:"subscription"`
	PriceCents      int64                `json:"price_cents"`
	ChargedCents    int64                `json:"charged_cents"`
	DiscountPercent int                  `json:"discount_percent"`
}

func (UpgradeResponse) Message() string { return "Subscription updated" }

type CancelRequest struct {
	Immediate bool `json:"immediate"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

type ApplyCouponResponse struct {
	Subscription   SubscriptionResponse `json:"subscription"`
	CouponType     string               `json:"coupon_type"`
	Value          *int                 `json:"value"`
	NotificationOK bool                 `json:"notification_sent"`
	SideEffectNote string               `json:"side_effect,omitempty"`
}

func (ApplyCouponResponse) Message() string { return "Coupon applied" }
