package entity

import (
	"errors"
	"fmt"
	"strings"
)

// UpdateField is the closed set of paths a credential update may touch.
type UpdateField string

const (
	FieldKelleyRole      UpdateField = "kelley_attributes.role"
	FieldKelleyFunction  UpdateField = "kelley_attributes.function"
	FieldHighPrivilege   UpdateField = "security_flags.is_high_privilege"
	FieldPrivate         UpdateField = "security_flags.is_private"
	FieldRevocationState UpdateField = "security_flags.revocation_state"
	Field2FARequired     UpdateField = "is_2fa_required"
	FieldLabel           UpdateField = "metadata.label"
)

const maxTextValue = 128

var (
	ErrUnknownField = errors.New("unknown update field")
	ErrInvalidValue = errors.New("invalid update value")
)

// UpdateCommand sets one field. Build it with ParseUpdateCommand so the value
// has been checked against the field's type.
type UpdateCommand struct {
	Field UpdateField
	Value any
}

// ParseUpdateCommand validates a dotted path and a decoded JSON value.
func ParseUpdateCommand(path string, value any) (UpdateCommand, error) {
	f := UpdateField(path)
	switch f {
	case FieldKelleyRole, FieldKelleyFunction, FieldLabel:
		s, ok := value.(string)
		s = strings.TrimSpace(s)
		if !ok || s == "" || len(s) > maxTextValue {
			return UpdateCommand{}, fmt.Errorf("%w: %s must be a non-empty string up to %d characters", ErrInvalidValue, path, maxTextValue)
		}
		return UpdateCommand{Field: f, Value: s}, nil

	case FieldHighPrivilege, FieldPrivate, Field2FARequired:
		b, ok := value.(bool)
		if !ok {
			return UpdateCommand{}, fmt.Errorf("%w: %s must be a boolean", ErrInvalidValue, path)
		}
		return UpdateCommand{Field: f, Value: b}, nil

	case FieldRevocationState:
		s, _ := value.(string)
		if rs := RevocationState(s); rs.Valid() {
			return UpdateCommand{Field: f, Value: rs}, nil
		}
		return UpdateCommand{}, fmt.Errorf("%w: %s must be one of Active, Revoked, Suspended", ErrInvalidValue, path)

	default:
		return UpdateCommand{}, fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
}

// Apply mutates c and returns the changes that actually altered a value.
func (c *Credential) Apply(cmds []UpdateCommand) map[string]Change {
	changes := map[string]Change{}
	record := func(f UpdateField, old, updated any) {
		if old != updated {
			changes[string(f)] = Change{Old: old, New: updated}
		}
	}

	for _, cmd := range cmds {
		switch cmd.Field {
		case FieldKelleyRole, FieldKelleyFunction:
			key := strings.TrimPrefix(string(cmd.Field), "kelley_attributes.")
			if c.KelleyAttributes == nil {
				c.KelleyAttributes = map[string]any{}
			}
			old := c.KelleyAttributes[key]
			c.KelleyAttributes[key] = cmd.Value
			record(cmd.Field, old, cmd.Value)

		case FieldHighPrivilege:
			old := c.SecurityFlags.IsHighPrivilege
			c.SecurityFlags.IsHighPrivilege = cmd.Value.(bool)
			record(cmd.Field, old, c.SecurityFlags.IsHighPrivilege)

		case FieldPrivate:
			old := c.SecurityFlags.IsPrivate
			c.SecurityFlags.IsPrivate = cmd.Value.(bool)
			record(cmd.Field, old, c.SecurityFlags.IsPrivate)

		case FieldRevocationState:
			old := c.SecurityFlags.RevocationState
			c.SecurityFlags.RevocationState = cmd.Value.(RevocationState)
			record(cmd.Field, string(old), string(c.SecurityFlags.RevocationState))

		case Field2FARequired:
			old := c.Is2FARequired
			c.Is2FARequired = cmd.Value.(bool)
			record(cmd.Field, old, c.Is2FARequired)

		case FieldLabel:
			old := c.Metadata.Label
			c.Metadata.Label = cmd.Value.(string)
			record(cmd.Field, old, c.Metadata.Label)
		}
	}

	return changes
}
