package inbound

import (
	"github.com/shandysiswandi/ktvs/internal/credential/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

type HTTPEndpoint struct {
	uc uc
}

// Register is called by the identity provider after it creates a subject.
// Provisioning failures are reported in the body, never as an error status.
// @Summary Provision on registration
// @Tags Credentials
// @Accept json
// @Produce json
// @Param X-Identity-Provider-Secret header string true "Identity provider shared secret"
// @Param request body RegisterRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=RegisterResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid shared secret"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/registrations [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	act := actor.New(actor.SystemSubject, r.ClientIP(), r.UserAgent())
	out, res := h.uc.RegisterSubject(r.Context(), usecase.ProvisionInput{
		SubjectID: req.SubjectID,
		Label:     req.Label,
		Actor:     act,
	})
	if !res.OK() {
		return RegisterResponse{SideEffectNote: res.Reason()}, nil
	}

	return RegisterResponse{
		Provisioned:  true,
		ProvisionURI: out.URI,
		CredentialID: out.Credential.ID,
	}, nil
}

// Create stores a credential for the caller.
// @Summary Create credential
// @Tags Credentials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=CreateResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 409 {object} router.errorResponse "Credential already exists"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/credentials [post]
func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req CreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Provision(r.Context(), usecase.ProvisionInput{
		SubjectID: r.SubjectID(),
		Label:     req.Label,
		Actor:     r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return CreateResponse{
		Credential:   toCredentialResponse(out.Credential),
		ProvisionURI: out.URI,
	}, nil
}

// @Summary Get own credential
// @Tags Credentials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=CredentialResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/credentials/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	cred, err := h.uc.GetBySubject(r.Context(), usecase.GetBySubjectInput{SubjectID: r.SubjectID()})
	if err != nil {
		return nil, err
	}

	return toCredentialResponse(cred), nil
}

// @Summary Update own credential
// @Description Owners may change metadata.label and is_2fa_required only.
// @Tags Credentials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=CredentialResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 403 {object} router.errorResponse "Not an administrator"
// @Failure 404 {object} router.errorResponse "Not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/credentials/me [patch]
func (h *HTTPEndpoint) UpdateMe(r *router.Request) (any, error) {
	return h.patch(r, r.SubjectID())
}

// @Summary Update a credential
// @Tags Credentials, Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subject path string true "Subject ID"
// @Param request body UpdateRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=CredentialResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 403 {object} router.errorResponse "Not an administrator"
// @Failure 404 {object} router.errorResponse "Not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/admin/credentials/{subject} [patch]
func (h *HTTPEndpoint) AdminUpdate(r *router.Request) (any, error) {
	return h.patch(r, r.GetParam("subject"))
}

func (h *HTTPEndpoint) patch(r *router.Request, subjectID string) (any, error) {
	var req UpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	if len(req) == 0 {
		return nil, goerror.NewInvalidFormat("At least one field is required")
	}

	cred, err := h.uc.Patch(r.Context(), usecase.PatchInput{
		SubjectID: subjectID,
		Fields:    req,
		Actor:     r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return toCredentialResponse(cred), nil
}

// @Summary Delete credential
// @Tags Credentials
// @Produce json
// @Security BearerAuth
// @Param id path string true "Credential ID"
// @Success 200 {object} router.successResponse{data=DeleteResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/credentials/{id} [delete]
func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	deleted, err := h.uc.Delete(r.Context(), usecase.DeleteInput{
		ID:    r.GetParam("id"),
		Actor: r.Actor(),
	})
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, goerror.NewBusiness("credential not found", goerror.CodeNotFound)
	}

	return DeleteResponse{Deleted: true}, nil
}

// @Summary Toggle 2FA requirement
// @Tags Credentials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=Toggle2FAResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/credentials/me/toggle-2fa [post]
func (h *HTTPEndpoint) Toggle2FA(r *router.Request) (any, error) {
	enabled, err := h.uc.Toggle2FA(r.Context(), usecase.Toggle2FAInput{Actor: r.Actor()})
	if err != nil {
		return nil, err
	}

	return Toggle2FAResponse{Is2FARequired: enabled}, nil
}

// ExportSeed returns the caller's seed and provisioning URI.
// @Summary Export TOTP seed
// @Description Every export is recorded in the audit log.
// @Tags Credentials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ExportSeedResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/credentials/me/seed [get]
func (h *HTTPEndpoint) ExportSeed(r *router.Request) (any, error) {
	out, err := h.uc.ExportSeed(r.Context(), usecase.ExportSeedInput{Actor: r.Actor()})
	if err != nil {
		return nil, err
	}

	return ExportSeedResponse{Seed: out.Seed, ProvisionURI: out.URI}, nil
}

// @Summary List credential change history
// @Tags Credentials
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=HistoryResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/credentials/me/history [get]
func (h *HTTPEndpoint) History(r *router.Request) (any, error) {
	history, err := h.uc.ListHistory(r.Context(), usecase.GetBySubjectInput{SubjectID: r.SubjectID()})
	if err != nil {
		return nil, err
	}

	return HistoryResponse{History: history}, nil
}

// AdminReset replaces a subject's credential with a fresh one.
// @Summary Reset a subject's 2FA
// @Tags Credentials, Admin
// @Produce json
// @Security BearerAuth
// @Param subject path string true "Subject ID"
// @Success 200 {object} router.successResponse{data=AdminResetResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 403 {object} router.errorResponse "Not an administrator"
// @Router /api/v1/admin/credentials/{subject}/reset [post]
func (h *HTTPEndpoint) AdminReset(r *router.Request) (any, error) {
	out, err := h.uc.AdminReset2FA(r.Context(), usecase.AdminResetInput{
		SubjectID: r.GetParam("subject"),
		Actor:     r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return AdminResetResponse{
		Credential:     toCredentialResponse(out.Credential),
		NotificationOK: out.Result.OK(),
		SideEffectNote: out.Result.Reason(),
	}, nil
}

// @Summary Show current TOTP code
// @Tags Credentials, Admin
// @Produce json
// @Security BearerAuth
// @Param subject path string true "Subject ID"
// @Success 200 {object} router.successResponse{data=CurrentCodeResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 403 {object} router.errorResponse "Not an administrator"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/admin/credentials/{subject}/code [get]
func (h *HTTPEndpoint) AdminCurrentCode(r *router.Request) (any, error) {
	code, err := h.uc.CurrentCode(r.Context(), usecase.CurrentCodeInput{
		SubjectID: r.GetParam("subject"),
		Actor:     r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return CurrentCodeResponse{Code: code}, nil
}
