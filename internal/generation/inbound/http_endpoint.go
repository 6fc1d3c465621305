package inbound

import (
	"encoding/base64"

	"github.com/shandysiswandi/ktvs/internal/generation/entity"
	"github.com/shandysiswandi/ktvs/internal/generation/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

const idempotencyHeader = "Idempotency-Key"

type HTTPEndpoint struct {
	uc uc
}

// Generate renders a QR code, reserving quota unless previewing.
// @Summary Generate QR code
// @Tags QR Codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Deduplicates retries"
// @Param request body GenerateRequest true "Request payload"
// @Success 200 {object} router.successResponse{data=GenerateResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 402 {object} router.errorResponse "Quota exceeded"
// @Failure 409 {object} router.errorResponse "Request in progress"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/qrcodes [post]
func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	var req GenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	kind := entity.Kind(req.Kind)
	if kind == "" {
		kind = entity.KindURL
	}

	out, err := h.uc.Generate(r.Context(), usecase.GenerateInput{
		SubjectID:      r.SubjectID(),
		Kind:           kind,
		Content:        req.Content,
		Size:           req.Size,
		BoxSize:        req.BoxSize,
		Border:         req.Border,
		Foreground:     req.Foreground,
		Background:     req.Background,
		Preview:        req.Preview,
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		return nil, err
	}

	return GenerateResponse{
		ID:      out.HistoryID,
		Image:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(out.PNG),
		URL:     out.URL,
		Preset:  out.Preset,
		BoxSize: out.BoxSize,
		Border:  out.Border,
		preview: req.Preview,
	}, nil
}

// @Summary List QR history
// @Tags QR Codes
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Param favorites query bool false "Only favorites"
// @Success 200 {object} router.successResponse{data=ListResponse}
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Router /api/v1/qrcodes [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, goerror.NewInvalidFormat("limit must be a number")
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, goerror.NewInvalidFormat("offset must be a number")
	}
	favorites, err := r.GetQueryBool("favorites")
	if err != nil {
		return nil, goerror.NewInvalidFormat("favorites must be a boolean")
	}

	out, err := h.uc.ListHistory(r.Context(), usecase.ListInput{
		SubjectID:     r.SubjectID(),
		OnlyFavorites: favorites,
		Limit:         int(limit),
		Offset:        int(offset),
	})
	if err != nil {
		return nil, err
	}

	resp := ListResponse{Items: make([]HistoryResponse, 0, len(out.Items)), total: out.Total, limit: limit, offset: offset}
	for _, it := range out.Items {
		resp.Items = append(resp.Items, HistoryResponse{
			ID:         it.ID,
			Kind:       it.Kind,
			Content:    it.Content,
			Foreground: it.Foreground,
			Background: it.Background,
			Preset:     it.Preset,
			BoxSize:    it.BoxSize,
			Border:     it.Border,
			SizeBytes:  it.SizeBytes,
			IsFavorite: it.IsFavorite,
			URL:        it.URL,
			CreatedAt:  it.CreatedAt,
		})
	}

	return resp, nil
}

// @Summary Toggle favorite
// @Tags QR Codes
// @Produce json
// @Security BearerAuth
// @Param id path string true "History ID"
// @Success 200 {object} router.successResponse{data=FavoriteResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/qrcodes/{id}/favorite [post]
func (h *HTTPEndpoint) ToggleFavorite(r *router.Request) (any, error) {
	fav, err := h.uc.ToggleFavorite(r.Context(), usecase.EntryInput{ID: r.GetParam("id"), SubjectID: r.SubjectID()})
	if err != nil {
		return nil, err
	}

	return FavoriteResponse{ID: r.GetParam("id"), IsFavorite: fav}, nil
}

// @Summary Delete QR history entry
// @Tags QR Codes
// @Produce json
// @Security BearerAuth
// @Param id path string true "History ID"
// @Success 200 {object} router.successResponse
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 404 {object} router.errorResponse "Not found"
// @Router /api/v1/qrcodes/{id} [delete]
func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	if err := h.uc.DeleteHistory(r.Context(), usecase.EntryInput{ID: r.GetParam("id"), SubjectID: r.SubjectID()}); err != nil {
		return nil, err
	}

	return nil, nil
}
