package inbound

import (
	"net/http"
	"time"
)

type IssueRequest struct {
	Type         string `json:"type"`
	Value        *int   `json:"value"`
	ValidityDays int    `json:"validity_days"`
}

type IssueResponse struct {
	Code      string    `json:"code"`
	Signature string    `json:"signature"`
	Type      string    `json:"type"`
	Value     *int      `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (IssueResponse) StatusCode() int { return http.StatusCreated }

func (IssueResponse) Message() string { return "Coupon issued" }

type CouponResponse struct {
	Code       string     `json:"code"`
	Type       string     `json:"type"`
	Value      *int       `json:"value"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	Issuer     string     `json:"issuer"`
	RedeemedBy *string    `json:"redeemed_by"`
	RedeemedAt *time.Time `json:"redeemed_at"`
	IsConsumed bool       `json:"is_consumed"`
}

type ListResponse struct {
	Coupons []CouponResponse `json:"coupons"`
}
