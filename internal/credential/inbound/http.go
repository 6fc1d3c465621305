package inbound

import (
	"context"

	"github.com/shandysiswandi/ktvs/internal/credential/entity"
	"github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/shared/result"
)

type uc interface {
	Provision(ctx context.Context, in usecase.ProvisionInput) (*usecase.ProvisionOutput, error)
	RegisterSubject(ctx context.Context, in usecase.ProvisionInput) (*usecase.ProvisionOutput, result.Result)
	GetBySubject(ctx context.Context, in usecase.GetBySubjectInput) (*entity.Credential, error)
	ListHistory(ctx context.Context, in usecase.GetBySubjectInput) ([]entity.ChangeRecord, error)
	Patch(ctx context.Context, in usecase.PatchInput) (*entity.Credential, error)
	Delete(ctx context.Context, in usecase.DeleteInput) (bool, error)
	Toggle2FA(ctx context.Context, in usecase.Toggle2FAInput) (bool, error)
	ExportSeed(ctx context.Context, in usecase.ExportSeedInput) (*usecase.ExportSeedOutput, error)
	AdminReset2FA(ctx context.Context, in usecase.AdminResetInput) (*usecase.AdminResetOutput, error)
	CurrentCode(ctx context.Context, in usecase.CurrentCodeInput) (string, error)
}

// RegisterHTTPEndpoint mounts the credential routes. The registration hook is
// public to JWT auth and guarded by hookSecret instead.
func RegisterHTTPEndpoint(r *router.Router, uc uc, hookSecret []byte) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/registrations", end.Register, router.SharedSecret(router.HeaderIdentityProviderSecret, hookSecret))

	r.POST("/api/v1/credentials", end.Create)
	r.GET("/api/v1/credentials/me", end.Me)
	r.PATCH("/api/v1/credentials/me", end.UpdateMe)
	r.DELETE("/api/v1/credentials/:id", end.Delete)
	r.POST("/api/v1/credentials/me/toggle-2fa", end.Toggle2FA)
	r.GET("/api/v1/credentials/me/seed", end.ExportSeed)
	r.GET("/api/v1/credentials/me/history", end.History)

	r.PATCH("/api/v1/admin/credentials/:subject", end.AdminUpdate, r.Privileged())
	r.POST("/api/v1/admin/credentials/:subject/reset", end.AdminReset, r.Privileged())
	r.GET("/api/v1/admin/credentials/:subject/code", end.AdminCurrentCode, r.Privileged())
}
