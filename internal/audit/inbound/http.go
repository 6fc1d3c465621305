package inbound

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/audit/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

type uc interface {
	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/admin/audit-events", end.List, r.Privileged())
}
