package inbound

import (
	"github.com/shandysiswandi/ktvs/internal/login/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

type HTTPEndpoint struct {
	uc uc
}

// Begin starts a login for a subject whose password is already verified.
// @Summary Begin login
// @Description Called by the identity provider after password verification. Returns an access token or a pending 2FA session.
// @Tags Login
// @Accept json
// @Produce json
// @Param X-Identity-Provider-Secret header string true "Identity provider shared secret"
// @Param request body BeginRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=BeginResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid shared secret"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/login/begin [post]
func (h *HTTPEndpoint) Begin(r *router.Request) (any, error) {
	var req BeginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Begin(r.Context(), usecase.BeginInput{
		SubjectID: req.SubjectID,
		Actor:     actor.New(req.SubjectID, r.ClientIP(), r.UserAgent()),
	})
	if err != nil {
		return nil, err
	}

	resp := BeginResponse{
		Status:       out.Status,
		AccessToken:  out.AccessToken,
		SessionToken: out.SessionToken,
		Digits:       out.Digits,
	}
	if !out.ExpiresAt.IsZero() {
		resp.ExpiresAt = &out.ExpiresAt
	}

	return resp, nil
}

// Verify checks a TOTP code against a pending session.
// @Summary Verify 2FA code
// @Tags Login
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Invalid code or expired session"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Session locked out"
// @Failure 504 {object} router.errorResponse "Store timeout"
// @Router /api/v1/login/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		SessionToken: req.SessionToken,
		Code:         req.Code,
		Actor:        r.Actor(),
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{AccessToken: out.AccessToken}, nil
}

// Recovery answers identically whatever happened after validation so the
// response cannot be used to discover accounts.
// @Summary Request account recovery
// @Tags Login
// @Accept json
// @Produce json
// @Param request body RecoveryRequest true "Request payload"
// @Success 200 {object} router.successResponse
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/login/recovery [post]
func (h *HTTPEndpoint) Recovery(r *router.Request) (any, error) {
	var req RecoveryRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if _, err := h.uc.RequestRecovery(r.Context(), usecase.RecoveryInput{
		Username: req.Username,
		Email:    req.Email,
		Reason:   req.Reason,
		Actor:    r.Actor(),
	}); err != nil {
		return nil, err
	}

	return RecoveryResponse{}, nil
}
