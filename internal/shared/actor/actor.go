// Package actor identifies who performed an operation.
package actor

// SystemSubject is used for operations the service performs on its own behalf.
const SystemSubject = "system"

// Actor is the subject plus the request origin it acted from.
type Actor struct {
	SubjectID     string `json:"subject_id"`
	OriginAddress string `json:"origin_address,omitempty"`
	OriginAgent   string `json:"origin_agent,omitempty"`
}

// System returns the service's own actor.
func System() Actor { return Actor{SubjectID: SystemSubject} }

// New builds an actor from request data.
func New(subjectID, address, agent string) Actor {
	return Actor{SubjectID: subjectID, OriginAddress: address, OriginAgent: agent}
}
