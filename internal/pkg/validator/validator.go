// Package validator checks request structs through their `validate` tags.
package validator

// Validator validates structs using their `validate` tags.
type Validator interface {
	Validate(data any) error
}
