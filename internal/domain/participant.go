// Package domain contains entity without logic, just meta-data
package domain

import "github.com/google/uuid"

// ParticipantID identifies one connected signal channel. It is assigned by
// the relay and lives exactly as long as that channel.
type ParticipantID string

// NewParticipantID is a tiny helper to avoid ad-hoc uuid calls in adapters.
func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.NewString())
}

type Role int

const (
	RoleUnknown Role = iota
	RoleCaller
	RoleCallee
)

func (r Role) String() string {
	switch r {
	case RoleCaller:
		return "caller"
	case RoleCallee:
		return "callee"
	default:
		return "unknown"
	}
}

// RoleOf derives the role of self from a pairing. The member that joined
// first initiates the call.
func RoleOf(self ParticipantID, a PairingAnnouncement) Role {
	switch self {
	case a.First:
		return RoleCaller
	case a.Second:
		return RoleCallee
	default:
		return RoleUnknown
	}
}
