package entity

import (
	"strconv"
	"time"
)

type Type string

const (
	TypeUnlimitedGeneration Type = "unlimited-generation"
	TypeMeteredGeneration   Type = "metered-generation"
	TypeAdminElevation      Type = "admin-elevation"
	TypeQuotaBoost          Type = "quota-boost"
	TypeStorageBoost        Type = "storage-boost"
	TypeDiscount            Type = "discount"
)

// DefaultMeteredValue is the generation limit a metered coupon grants when
// issued without a value.
const DefaultMeteredValue = 100

func (t Type) Valid() bool {
	switch t {
	case TypeUnlimitedGeneration, TypeMeteredGeneration, TypeAdminElevation,
		TypeQuotaBoost, TypeStorageBoost, TypeDiscount:
		return true
	default:
		return false
	}
}

// Reusable coupons may be redeemed any number of times until they expire.
func (t Type) Reusable() bool { return t == TypeUnlimitedGeneration }

// NeedsValue reports whether the grant is meaningless without a value.
func (t Type) NeedsValue() bool {
	return t == TypeQuotaBoost || t == TypeStorageBoost || t == TypeDiscount
}

type Coupon struct {
	Code       string
	Type       Type
	Value      *int
	Signature  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Issuer     string
	RedeemedBy *string
	RedeemedAt *time.Time
	IsConsumed bool
}

// SigningPayload is the string the signature covers: code:type:value:expires_at.
// A missing value is written as "-". Expiry is RFC3339 UTC at second precision
// so it survives a round trip through the database.
func SigningPayload(code string, t Type, value *int, expiresAt time.Time) string {
	v := "-"
	if value != nil {
		v = strconv.Itoa(*value)
	}
	return code + ":" + string(t) + ":" + v + ":" + expiresAt.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// SigningPayload of the stored fields.
func (c Coupon) SigningPayload() string {
	return SigningPayload(c.Code, c.Type, c.Value, c.ExpiresAt)
}

func (c Coupon) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ValueOr returns the coupon value, or def when the coupon carries none.
func (c Coupon) ValueOr(def int) int {
	if c.Value == nil {
		return def
	}
	return *c.Value
}
