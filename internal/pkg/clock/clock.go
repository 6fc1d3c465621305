// Package clock lets usecases read time through an interface so tests can
// freeze it with Fake.
package clock

import "time"

type Clocker interface {
	Now() time.Time
}

// System reads the wall clock in UTC.
type System struct{}

func New() System { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }
