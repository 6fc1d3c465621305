package pgxcasbin

import "errors"

var (
	// ErrRuleTooLong indicates a rule exceeds the six value columns.
	ErrRuleTooLong = errors.New("pgxcasbin: rule length exceeds field count")
	// ErrRuleEmpty indicates an empty rule payload.
	ErrRuleEmpty = errors.New("pgxcasbin: rule is empty")
	// ErrEmptyPtype indicates a missing policy type.
	ErrEmptyPtype = errors.New("pgxcasbin: ptype is empty")
	// ErrArgsTooLong indicates a filter has more values than columns.
	ErrArgsTooLong = errors.New("pgxcasbin: args length exceeds field count")
)
