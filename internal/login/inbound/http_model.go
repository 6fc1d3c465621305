package inbound

import "time"

type BeginRequest struct {
	SubjectID string `json:"subject_id"`
}

type BeginResponse struct {
	Status       string     `json:"status"`
	AccessToken  string     `json:"access_token,omitempty"`
	SessionToken string     `json:"session_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Digits       int        `json:"digits,omitempty"`
}

type VerifyRequest struct {
	SessionToken string `json:"session_token"`
	Code         string `json:"code"`
}

type VerifyResponse struct {
	AccessToken string `json:"access_token"`
}

func (VerifyResponse) Message() string {
	return "Login successful"
}

type RecoveryRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Reason   string `json:"reason"`
}

type RecoveryResponse struct{}

func (RecoveryResponse) Message() string {
	return "If the account exists, an administrator will review your request."
}
