package signal

import (
	"encoding/json"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// parseRoomID accepts {"roomId": "..."} or a bare JSON string.
func parseRoomID(env protocol.Envelope) (domain.RoomID, error) {
	var bare string
	if err := json.Unmarshal(env.Payload, &bare); err == nil {
		return domain.NewRoomID(bare)
	}
	var p protocol.JoinRoom
	if err := env.Bind(&p); err != nil {
		return "", err
	}
	return domain.NewRoomID(string(p.RoomID))
}

func (ctl *SignalWSController) handleJoin(pid domain.ParticipantID, env protocol.Envelope) {
	room, err := parseRoomID(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("pid", string(pid)).Msg("bad join payload")
		return
	}
	res := ctl.Orch.Join(pid, room)
	log.Info().Str("module", "signal").Str("pid", string(pid)).Str("room", string(room)).Bool("admitted", res.Admitted).Int("size", res.Size).Msg("join")
}

// handleLeave leaves the current room; the channel stays open.
func (ctl *SignalWSController) handleLeave(pid domain.ParticipantID) {
	log.Info().Str("module", "signal").Str("pid", string(pid)).Msg("leave")
	ctl.Orch.Leave(pid)
}
