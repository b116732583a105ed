package session

import (
	"errors"
	"fmt"
)

type State int32

const (
	StateIdle State = iota
	StateAwaitingPeer
	StateNegotiating
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPeer:
		return "awaiting-peer"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// RolePolicy decides who may send the first offer.
type RolePolicy int

const (
	// FirstInitiates: the earlier joiner calls as soon as the pair is
	// announced; the other side only answers.
	FirstInitiates RolePolicy = iota
	// Manual: either side calls MakeCall. Simultaneous offers are settled
	// in favour of the earlier joiner.
	Manual
)

func ParseRolePolicy(name string) (RolePolicy, error) {
	switch name {
	case "", "first_initiates", "first-initiates":
		return FirstInitiates, nil
	case "manual":
		return Manual, nil
	}
	return 0, fmt.Errorf("unknown role policy %q", name)
}

var (
	ErrClosed         = errors.New("session closed")
	ErrNotStarted     = errors.New("session not started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNoPeer         = errors.New("peer not present")
	ErrNotInitiator   = errors.New("only the first participant may call")
	ErrChannelLost    = errors.New("signal channel lost")
	ErrRoomFull       = errors.New("room is full")
	ErrEvicted        = errors.New("evicted from room")
	ErrUnexpected     = errors.New("unexpected answer")
)
