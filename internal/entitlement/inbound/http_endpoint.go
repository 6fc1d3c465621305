package inbound

import (
	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
	"github.com/shandysiswandi/ktvs/internal/entitlement/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// @Summary Get subscription
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=SubscriptionResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Router /api/v1/subscription [get]
func (h *HTTPEndpoint) Get(r *router.Request) (any, error) {
	sub, err := h.uc.Get(r.Context(), usecase.GetInput{SubjectID: r.SubjectID()})
	if err != nil {
		return nil, err
	}

	return toSubscriptionResponse(sub), nil
}

// @Summary Get generation quota
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=QuotaResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Router /api/v1/subscription/quota [get]
func (h *HTTPEndpoint) Quota(r *router.Request) (any, error) {
	q, err := h.uc.CheckQuota(r.Context(), usecase.GetInput{SubjectID: r.SubjectID()})
	if err != nil {
		return nil, err
	}

	return toQuotaResponse(*q), nil
}

// @Summary Change plan
// @Tags Subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpgradeRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=UpgradeResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/subscription/upgrade [post]
func (h *HTTPEndpoint) Upgrade(r *router.Request) (any, error) {
	var req UpgradeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	cycle := entity.BillingCycle(req.BillingCycle)
	if cycle == "" {
		cycle = entity.CycleMonthly
	}

	out, err := h.uc.Upgrade(r.Context(), usecase.UpgradeInput{
		SubjectID:    r.SubjectID(),
		Plan:         entity.Plan(req.Plan),
		BillingCycle: cycle,
		Actor:        r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return UpgradeResponse{
		Subscription:    toSubscriptionResponse(out.Subscription),
		PriceCents:      out.Price,
		ChargedCents:    out.Charged,
		DiscountPercent: out.DiscountPercent,
	}, nil
}

// @Summary Cancel subscription
// @Tags Subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CancelRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=SubscriptionResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Router /api/v1/subscription/cancel [post]
func (h *HTTPEndpoint) Cancel(r *router.Request) (any, error) {
	var req CancelRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	sub, err := h.uc.Cancel(r.Context(), usecase.CancelInput{
		SubjectID: r.SubjectID(),
		Immediate: req.Immediate,
		Actor:     r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return toSubscriptionResponse(sub), nil
}

// ApplyCoupon redeems a coupon and applies its grant to the caller's subscription.
// @Summary Apply coupon
// @Tags Subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ApplyCouponRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=ApplyCouponResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Invalid coupon"
// @Failure 409 {object} router.errorResponse "Coupon already used"
// @Failure 410 {object} router.errorResponse "Coupon expired"
// @Router /api/v1/subscription/coupon [post]
func (h *HTTPEndpoint) ApplyCoupon(r *router.Request) (any, error) {
	var req ApplyCouponRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.ApplyCoupon(r.Context(), usecase.ApplyCouponInput{
		Code:      req.Code,
		SubjectID: r.SubjectID(),
		Actor:     r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return ApplyCouponResponse{
		Subscription:   toSubscriptionResponse(out.Subscription),
		CouponType:     string(out.Type),
		Value:          out.Value,
		NotificationOK: out.Result.OK(),
		SideEffectNote: out.Result.Reason(),
	}, nil
}
