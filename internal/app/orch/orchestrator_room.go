package orch

import (
	"github.com/dkeye/duocall/internal/app"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join moves pid into room. A participant already in another room leaves
// it first. The pairing announcement goes out inside the join critical
// section, earlier joiner first.
func (o *Orchestrator) Join(pid domain.ParticipantID, room domain.RoomID) app.JoinResult {
	if prev, ok := o.Registry.RoomOf(pid); ok && prev != room {
		o.Leave(pid)
		log.Info().Str("module", "orch").Str("pid", string(pid)).Str("from_room", string(prev)).Msg("left previous room")
	}

	return o.Rooms.Join(room, pid, func(res app.JoinResult) {
		if !res.Admitted {
			o.sendTo(pid, protocol.TypeRoomFull, protocol.RoomFull{RoomID: room})
			return
		}
		o.Registry.SetRoom(pid, room)

		if res.Evicted != "" {
			o.Registry.ClearRoom(res.Evicted)
			o.sendTo(res.Evicted, protocol.TypeEvicted, protocol.Evicted{RoomID: room})
			if res.Paired != nil {
				if other, ok := res.Paired.Other(pid); ok {
					o.sendTo(other, protocol.TypePeerLeft, protocol.PeerLeft{ID: res.Evicted})
				}
			}
		}

		if res.Paired != nil {
			a := *res.Paired
			o.sendTo(a.First, protocol.TypeUserJoined, a)
			o.sendTo(a.Second, protocol.TypeUserJoined, a)
			log.Info().Str("module", "orch").Str("room", string(room)).Str("first", string(a.First)).Str("second", string(a.Second)).Msg("paired")
		}
	})
}

// Leave removes pid from its room and tells whoever remains, inside the
// same critical section as the removal.
func (o *Orchestrator) Leave(pid domain.ParticipantID) {
	room, ok := o.Registry.RoomOf(pid)
	if !ok {
		return
	}
	o.Registry.ClearRoom(pid)
	remaining, removed := o.Rooms.Leave(room, pid, func(remaining []domain.ParticipantID) {
		for _, other := range remaining {
			o.sendTo(other, protocol.TypePeerLeft, protocol.PeerLeft{ID: pid})
		}
	})
	if !removed {
		return
	}
	log.Info().Str("module", "orch").Str("pid", string(pid)).Str("room", string(room)).Int("remaining", len(remaining)).Msg("left room")
}

// OnDisconnect treats channel loss as an implicit leave.
func (o *Orchestrator) OnDisconnect(pid domain.ParticipantID) {
	o.Leave(pid)
	o.Registry.Unbind(pid)
}
