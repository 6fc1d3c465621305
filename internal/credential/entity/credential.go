package entity

import (
	"time"
)

type RevocationState string

const (
	RevocationActive    RevocationState = "Active"
	RevocationRevoked   RevocationState = "Revoked"
	RevocationSuspended RevocationState = "Suspended"
)

func (r RevocationState) Valid() bool {
	switch r {
	case RevocationActive, RevocationRevoked, RevocationSuspended:
		return true
	default:
		return false
	}
}

type Metadata struct {
	Label         string `json:"label"`
	Issuer        string `json:"issuer"`
	DigitCount    int    `json:"digit_count"`
	PeriodSeconds int    `json:"period_seconds"`
	Algorithm     string `json:"algorithm"`
}

type SecurityFlags struct {
	IsHighPrivilege bool            `json:"is_high_privilege"`
	IsPrivate       bool            `json:"is_private"`
	RevocationState RevocationState `json:"revocation_state"`
}

// DefaultSecurityFlags is what a freshly provisioned credential carries.
func DefaultSecurityFlags() SecurityFlags {
	return SecurityFlags{RevocationState: RevocationActive}
}

// Change is one field transition inside a history entry.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

type ChangeRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Actor     string            `json:"actor"`
	Changes   map[string]Change `json:"changes"`
}

// Credential is the TOTP credential of one subject. EncryptedSecret is an
// envelope blob and is never decrypted by the store.
type Credential struct {
	ID               string
	SubjectID        string
	EncryptedSecret  []byte
	Metadata         Metadata
	KelleyAttributes map[string]any
	SecurityFlags    SecurityFlags
	Is2FARequired    bool
	ChangeHistory    []ChangeRecord
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
