package app

import (
	"fmt"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
)

// RoomCapacity is the number of members that completes a pairing.
const RoomCapacity = 2

type JoinAction int

const (
	Admit JoinAction = iota
	Reject
	EvictOldest
)

// JoinPolicy decides what happens when a participant joins a full room.
type JoinPolicy interface {
	OnFull(room core.RoomService, joiner domain.ParticipantID) JoinAction
}

// AppendPolicy admits every joiner. Rooms may grow past two; no further
// pairing announcement is sent.
type AppendPolicy struct{}

func (AppendPolicy) OnFull(core.RoomService, domain.ParticipantID) JoinAction { return Admit }

type RejectPolicy struct{}

func (RejectPolicy) OnFull(core.RoomService, domain.ParticipantID) JoinAction { return Reject }

type EvictOldestPolicy struct{}

func (EvictOldestPolicy) OnFull(core.RoomService, domain.ParticipantID) JoinAction {
	return EvictOldest
}

func ParsePolicy(name string) (JoinPolicy, error) {
	switch name {
	case "append":
		return AppendPolicy{}, nil
	case "", "reject":
		return RejectPolicy{}, nil
	case "evict_oldest", "evict-oldest":
		return EvictOldestPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown join policy %q", name)
}
