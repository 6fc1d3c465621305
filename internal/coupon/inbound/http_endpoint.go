package inbound

import (
	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/shandysiswandi/ktvs/internal/coupon/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// Issue mints a signed coupon.
// @Summary Issue coupon
// @Tags Coupons, Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IssueRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=IssueResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 403 {object} router.errorResponse "Not an administrator"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/admin/coupons [post]
func (h *HTTPEndpoint) Issue(r *router.Request) (any, error) {
	var req IssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Type:         entity.Type(req.Type),
		Value:        req.Value,
		ValidityDays: req.ValidityDays,
		Actor:        r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return IssueResponse{
		Code:      out.Code,
		Signature: out.Signature,
		Type:      string(out.Type),
		Value:     out.Value,
		ExpiresAt: out.ExpiresAt,
	}, nil
}

// @Summary List coupons
// @Tags Coupons, Admin
// @Produce json
// @Security BearerAuth
// @Param unconsumed query bool false "Only unconsumed coupons"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} router.successResponse{data=ListResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 403 {object} router.errorResponse "Not an administrator"
// @Router /api/v1/admin/coupons [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	unconsumed, err := r.GetQueryBool("unconsumed")
	if err != nil {
		return nil, err
	}
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	coupons, err := h.uc.List(r.Context(), usecase.ListInput{
		OnlyUnconsumed: unconsumed,
		Limit:          int(limit),
		Actor:          r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	resp := ListResponse{Coupons: make([]CouponResponse, 0, len(coupons))}
	for _, c := range coupons {
		resp.Coupons = append(resp.Coupons, CouponResponse{
			Code:       c.Code,
			Type:       string(c.Type),
			Value:      c.Value,
			ExpiresAt:  c.ExpiresAt,
			CreatedAt:  c.CreatedAt,
			Issuer:     c.Issuer,
			RedeemedBy: c.RedeemedBy,
			RedeemedAt: c.RedeemedAt,
			IsConsumed: c.IsConsumed,
		})
	}

	return resp, nil
}
