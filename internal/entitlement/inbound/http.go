package inbound

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/entitlement/entity"
	"github.com/shandysiswandi/ktvs/internal/entitlement/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

type uc interface {
	Get(ctx context.Context, in usecase.GetInput) (*entity.Subscription, error)
	CheckQuota(ctx context.Context, in usecase.GetInput) (*entity.Quota, error)
	Upgrade(ctx context.Context, in usecase.UpgradeInput) (*usecase.UpgradeOutput, error)
	Cancel(ctx context.Context, in usecase.CancelInput) (*entity.Subscription, error)
	ApplyCoupon(ctx context.Context, in usecase.ApplyCouponInput) (*usecase.ApplyCouponOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/subscription", end.Get)
	r.GET("/api/v1/subscription/quota", end.Quota)
	r.POST("/api/v1/subscription/upgrade", end.Upgrade)
	r.POST("/api/v1/subscription/cancel", end.Cancel)
	r.POST("/api/v1/subscription/coupon", end.ApplyCoupon)
}
