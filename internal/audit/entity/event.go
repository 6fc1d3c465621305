package entity

import (
	"time"

	"github.com/shandysiswandi/ktvs/internal/shared/actor"
)

type EventType string

const (
	EventCredentialCreated      EventType = "CREDENTIAL_CREATED"
	EventSecretViewed           EventType = "SECRET_VIEWED"
	EventCredentialModified     EventType = "CREDENTIAL_MODIFIED"
	EventCredentialDeleted      EventType = "CREDENTIAL_DELETED"
	Event2FASuccess             EventType = "2FA_SUCCESS"
	Event2FAFailed              EventType = "2FA_FAILED"
	Event2FALockout             EventType = "2FA_LOCKOUT"
	Event2FAStatusChanged       EventType = "2FA_STATUS_CHANGED"
	EventAdmin2FAReset          EventType = "ADMIN_2FA_RESET"
	EventAccountRecoveryRequest EventType = "ACCOUNT_RECOVERY_REQUEST"
	EventCouponIssued           EventType = "COUPON_ISSUED"
	EventCouponRedeemed         EventType = "COUPON_REDEEMED"
	EventSubscriptionChanged    EventType = "SUBSCRIPTION_CHANGED"
	EventSubscriptionCancelled  EventType = "SUBSCRIPTION_CANCELLED"
)

var knownEventTypes = map[EventType]struct{}{
	EventCredentialCreated: {}, EventSecretViewed: {}, EventCredentialModified: {},
	EventCredentialDeleted: {}, Event2FASuccess: {}, Event2FAFailed: {}, Event2FALockout: {},
	Event2FAStatusChanged: {}, EventAdmin2FAReset: {}, EventAccountRecoveryRequest: {},
	EventCouponIssued: {}, EventCouponRedeemed: {}, EventSubscriptionChanged: {},
	EventSubscriptionCancelled: {},
}

func (e EventType) String() string { return string(e) }

// Valid reports whether e is one of the recorded event types.
func (e EventType) Valid() bool {
	_, ok := knownEventTypes[e]
	return ok
}

// TargetSystem is the target recorded for events not tied to a credential.
const TargetSystem = "system"

// Event is an immutable audit record.
type Event struct {
	ID        int64
	Type      EventType
	Actor     actor.Actor
	Target    string // credential id, TargetSystem, or empty
	Payload   map[string]any
	Timestamp time.Time
}

// Filter narrows List and Count. Empty fields match everything.
type Filter struct {
	Target    string
	Subject   string
	EventType EventType
}
