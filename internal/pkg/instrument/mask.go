package instrument

import (
	"encoding/json"
	"log/slog"
	"strings"
)

const maskedValue = "***"

// alwaysMasked holds keys that never reach a log sink unmasked: TOTP seeds and
// their otpauth URIs, one-time codes, coupon signatures and session material.
var alwaysMasked = []string{
	"secret", "encrypted_secret", "seed", "uri",
	"code", "signature",
	"token", "session_token", "access_token", "authorization",
}

// Masker replaces the values of sensitive keys, matched case-insensitively,
// anywhere inside a log value.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker masks the given keys in addition to the built-in set.
func NewMasker(fields ...string) Masker {
	m := Masker{keys: make(map[string]struct{}, len(fields)+len(alwaysMasked))}
	for _, f := range append(fields, alwaysMasked...) {
		f = strings.TrimSpace(strings.ToLower(f))
		if f != "" {
			m.keys[f] = struct{}{}
		}
	}
	return m
}

// Masks reports whether values under key are hidden.
func (m Masker) Masks(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Data masks decoded JSON-shaped values.
func (m Masker) Data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Masks(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = m.Data(v2)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = v2
		}
		return m.Data(out)
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Data(v2)
		}
		return out
	default:
		return v
	}
}

// JSON masks an encoded JSON object or array. ok is false when payload is not
// JSON.
func (m Masker) JSON(payload []byte) (_ string, ok bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return "", false
	}

	b, err := json.Marshal(m.Data(v))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Attr masks a slog attribute, descending into groups, maps and JSON strings.
func (m Masker) Attr(attr slog.Attr) slog.Attr {
	if m.Masks(attr.Key) {
		return slog.String(attr.Key, maskedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			out = append(out, m.Attr(ga))
		}
		attr.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := m.JSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any, map[string]string, []any:
			attr.Value = slog.AnyValue(m.Data(v))
		case []byte:
			if s, ok := m.JSON(v); ok {
				attr.Value = slog.StringValue(s)
			}
		}
	}

	return attr
}
