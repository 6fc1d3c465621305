package inbound

import (
	"github.com/shandysiswandi/ktvs/internal/audit/entity"
	"github.com/shandysiswandi/ktvs/internal/audit/usecase"
	"github.com/shandysiswandi/ktvs/internal/pkg/router"
)

// HTTPEndpoint exposes the audit trail to administrators.
type HTTPEndpoint struct {
	uc uc
}

// List returns audit events newest first, filtered by target, subject and type.
// @Summary List audit events
// @Tags Audit, Admin
// @Produce json
// @Security BearerAuth
// @Param target query string false "Target credential ID"
// @Param subject query string false "Actor subject ID"
// @Param event_type query string false "Event type"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} router.successResponse{data=ListResponse}
// @Failure 401 {object} router.errorResponse "Missing or invalid token"
// @Failure 403 {object} router.errorResponse "Not an administrator"
// @Router /api/v1/admin/audit-events [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.List(r.Context(), usecase.ListInput{
		Filter: entity.Filter{
			Target:    r.GetQuery("target"),
			Subject:   r.GetQuery("subject"),
			EventType: entity.EventType(r.GetQuery("event_type")),
		},
		Limit: int(limit),
	})
	if err != nil {
		return nil, err
	}

	events := make([]AuditEventResponse, 0, len(resp.Events))
	for _, ev := range resp.Events {
		events = append(events, AuditEventResponse{
			ID:                 ev.ID,
			EventType:          ev.Type.String(),
			ActorSubjectID:     ev.Actor.SubjectID,
			ActorOriginAddress: ev.Actor.OriginAddress,
			ActorOriginAgent:   ev.Actor.OriginAgent,
			TargetCredentialID: ev.Target,
			Payload:            ev.Payload,
			Timestamp:          ev.Timestamp,
		})
	}

	return ListResponse{Events: events, total: resp.Total}, nil
}
