package orch

import (
	"errors"

	"github.com/dkeye/duocall/internal/app"
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the relay: it pairs participants into rooms and routes
// negotiation messages between them by participant id.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
}

func New(policy app.JoinPolicy) *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(policy),
	}
}

// Connect registers a new channel and tells the participant its id.
func (o *Orchestrator) Connect(pid domain.ParticipantID, conn core.SignalConnection, token string) {
	o.Registry.Bind(pid, conn, token)
	o.sendTo(pid, protocol.TypeWelcome, protocol.Welcome{ID: pid})
}

func (o *Orchestrator) RoomList() []core.RoomInfo {
	return o.Rooms.List()
}

// sendTo delivers one event to pid. A missing channel or a full queue
// drops the event; the caller never learns about it.
func (o *Orchestrator) sendTo(pid domain.ParticipantID, typ string, payload any) bool {
	conn, ok := o.Registry.Conn(pid)
	if !ok {
		log.Debug().Str("module", "orch").Str("pid", string(pid)).Str("type", typ).Msg("drop: no live channel")
		return false
	}
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", typ).Msg("encode")
		return false
	}
	if err := conn.TrySend(frame); err != nil {
		ev := log.Warn()
		if !errors.Is(err, core.ErrBackpressure) {
			ev = log.Debug()
		}
		ev.Err(err).Str("module", "orch").Str("pid", string(pid)).Str("type", typ).Msg("drop: send failed")
		return false
	}
	return true
}
