package orch

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/rs/zerolog/log"
)

// route holds the only fields the relay reads from a negotiation message.
// Whatever else the participant sent is passed through as-is.
type route struct {
	ToID      domain.ParticipantID `json:"toId"`
	Offer     json.RawMessage      `json:"offer,omitempty"`
	Answer    json.RawMessage      `json:"answer,omitempty"`
	Candidate json.RawMessage      `json:"candidate,omitempty"`
}

// Relay forwards an offer, answer or ice-candidate from one participant to
// the target it names. Delivery is fire-and-forget.
func (o *Orchestrator) Relay(from domain.ParticipantID, env protocol.Envelope) error {
	outType, ok := protocol.Outbound(env.Type)
	if !ok {
		return fmt.Errorf("%s is not a relayed event", env.Type)
	}
	var r route
	if err := env.Bind(&r); err != nil {
		return err
	}
	if r.ToID == "" {
		return fmt.Errorf("%s: missing toId", env.Type)
	}

	var payload any
	switch env.Type {
	case protocol.TypeOffer:
		payload = protocol.IncomingOffer{From: from, Offer: r.Offer}
	case protocol.TypeAnswer:
		payload = protocol.YourAnswer{From: from, Answer: r.Answer}
	case protocol.TypeICECandidate:
		payload = protocol.InboundCandidate{From: from, Candidate: r.Candidate}
	}

	if o.sendTo(r.ToID, outType, payload) {
		log.Debug().Str("module", "orch").Str("from", string(from)).Str("to", string(r.ToID)).Str("type", outType).Msg("relayed")
	}
	return nil
}
