package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/ktvs/internal/credential/entity"
)

type RegisterRequest struct {
	SubjectID string `json:"subject_id"`
	Label     string `json:"label"`
}

type RegisterResponse struct {
	Provisioned    bool   `json:"provisioned"`
	ProvisionURI   string `json:"provisioning_uri,omitempty"`
	CredentialID   string `json:"credential_id,omitempty"`
	SideEffectNote string `json:"side_effect,omitempty"`
}

func (RegisterResponse) Message() string {
	return "Registration processed"
}

type CreateRequest struct {
	Label string `json:"label"`
}

type CreateResponse struct {
	Credential   CredentialResponse `json:"credential"`
	ProvisionURI string             `json:"provisioning_uri"`
}

func (CreateResponse) StatusCode() int { return http.StatusCreated }

func (CreateResponse) Message() string {
	return "Credential created. Scan the provisioning URI with your authenticator app."
}

type CredentialResponse struct {
	ID               string               `json:"id"`
	SubjectID        string               `json:"subject_id"`
	Metadata         entity.Metadata      `json:"metadata"`
	KelleyAttributes map[string]any       `json:"kelley_attributes"`
	SecurityFlags    entity.SecurityFlags `json:"security_flags"`
	Is2FARequired    bool                 `json:"is_2fa_required"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func toCredentialResponse(c *entity.Credential) CredentialResponse {
	return CredentialResponse{
		ID:               c.ID,
		SubjectID:        c.SubjectID,
		Metadata:         c.Metadata,
		KelleyAttributes: c.KelleyAttributes,
		SecurityFlags:    c.SecurityFlags,
		Is2FARequired:    c.Is2FARequired,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// UpdateRequest maps dotted field paths to their new values, for example
// {"metadata.label": "work phone"}.
type UpdateRequest map[string]any

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type Toggle2FAResponse struct {
	Is2FARequired bool `json:"is_2fa_required"`
}

type ExportSeedResponse struct {
	Seed         string `json:"seed"`
	ProvisionURI string `json:"provisioning_uri"`
}

type HistoryResponse struct {
	History []entity.ChangeRecord `json:"history"`
}

type AdminResetResponse struct {
	Credential     CredentialResponse `json:"credential"`
	NotificationOK bool               `json:"notification_sent"`
	SideEffectNote string             `json:"side_effect,omitempty"`
}

func (AdminResetResponse) Message() string {
	return "Two-factor authentication has been reset"
}

type CurrentCodeResponse struct {
	Code string `json:"code"`
}
