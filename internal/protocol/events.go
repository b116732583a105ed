// Package protocol defines the signaling frames exchanged between
// participants and the relay. Session descriptions and ICE candidates are
// carried as raw JSON; the relay never looks inside them.
package protocol

import (
	"encoding/json"

	"github.com/dkeye/duocall/internal/domain"
)

// Participant → relay.
const (
	TypeJoinRoom  = "join-room"
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeLeaveRoom = "leave-room"
	TypePing      = "ping"
)

// Relay → participant.
const (
	TypeWelcome       = "welcome"
	TypeUserJoined    = "user-joined"
	TypeIncomingOffer = "incoming-offer"
	TypeYourAnswer    = "your-answer"
	TypePeerLeft      = "peer-left"
	TypeRoomFull      = "room-full"
	TypeEvicted       = "evicted"
	TypePong          = "pong"
)

// TypeICECandidate is used in both directions.
const TypeICECandidate = "ice-candidate"

type JoinRoom struct {
	RoomID domain.RoomID `json:"roomId"`
}

type LeaveRoom struct {
	RoomID domain.RoomID `json:"roomId,omitempty"`
}

type Welcome struct {
	ID domain.ParticipantID `json:"id"`
}

type UserJoined = domain.PairingAnnouncement

type Offer struct {
	ToID  domain.ParticipantID `json:"toId"`
	Offer json.RawMessage      `json:"offer"`
}

type IncomingOffer struct {
	From  domain.ParticipantID `json:"from"`
	Offer json.RawMessage      `json:"offer"`
}

type Answer struct {
	ToID   domain.ParticipantID `json:"toId"`
	Answer json.RawMessage      `json:"answer"`
}

type YourAnswer struct {
	From   domain.ParticipantID `json:"from,omitempty"`
	Answer json.RawMessage      `json:"answer"`
}

type OutboundCandidate struct {
	ToID      domain.ParticipantID `json:"toId"`
	Candidate json.RawMessage      `json:"candidate"`
}

type InboundCandidate struct {
	From      domain.ParticipantID `json:"from"`
	Candidate json.RawMessage      `json:"candidate"`
}

type PeerLeft struct {
	ID domain.ParticipantID `json:"id"`
}

type RoomFull struct {
	RoomID domain.RoomID `json:"roomId"`
}

type Evicted struct {
	RoomID domain.RoomID `json:"roomId"`
}

// Outbound maps a participant → relay event to the event the target
// receives. ok is false for events that are not forwarded.
func Outbound(inbound string) (string, bool) {
	switch inbound {
	case TypeOffer:
		return TypeIncomingOffer, true
	case TypeAnswer:
		return TypeYourAnswer, true
	case TypeICECandidate:
		return TypeICECandidate, true
	}
	return "", false
}
