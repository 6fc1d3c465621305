package inbound

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/generation/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

type uc interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateOutput, error)
	ListHistory(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	ToggleFavorite(ctx context.Context, in usecase.EntryInput) (bool, error)
	DeleteHistory(ctx context.Context, in usecase.EntryInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/qrcodes", end.Generate)
	r.GET("/api/v1/qrcodes", end.List)
	r.POST("/api/v1/qrcodes/:id/favorite", end.ToggleFavorite)
	r.DELETE("/api/v1/qrcodes/:id", end.Delete)
}
