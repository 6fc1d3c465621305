package inbound

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/login/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
)

type uc interface {
	Begin(ctx context.Context, in usecase.BeginInput) (*usecase.BeginOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	RequestRecovery(ctx context.Context, in usecase.RecoveryInput) (result.Result, error)
}

// RegisterHTTPEndpoint mounts the login routes. All of them are public to JWT
// auth; begin is reserved to the identity provider through hookSecret.
func RegisterHTTPEndpoint(r *router.Router, uc uc, hookSecret []byte) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/login/begin", end.Begin, router.SharedSecret(router.HeaderIdentityProviderSecret, hookSecret))
	r.POST("/api/v1/login/verify", end.Verify)
	r.POST("/api/v1/login/recovery", end.Recovery)
}
