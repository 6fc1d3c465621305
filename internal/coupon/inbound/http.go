package inbound

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/shandysiswandi/ktvs/internal/coupon/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	List(ctx context.Context, in usecase.ListInput) ([]entity.Coupon, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/admin/coupons", end.Issue, r.Privileged())
	r.GET("/api/v1/admin/coupons", end.List, r.Privileged())
}
