package inbound

import "time"

type AuditEventResponse struct {
	ID                 int64          `json:"id,string"`
	EventType          string         `json:"event_type"`
	ActorSubjectID     string         `json:"actor_subject_id"`
	ActorOriginAddress string         `json:"actor_origin_address,omitempty"`
	ActorOriginAgent   string         `json:"actor_origin_agent,omitempty"`
	TargetCredentialID string         `json:"target_credential_id,omitempty"`
	Payload            map[string]any `json:"payload"`
	Timestamp          time.Time      `json:"timestamp"`
}

type ListResponse struct {
	Events []AuditEventResponse `json:"events"`
	total  int64
}

func (l ListResponse) Meta() map[string]any {
	return map[string]any{"total": l.total}
}
