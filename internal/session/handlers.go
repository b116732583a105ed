package session

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/pion/webrtc/v4"
)

func (s *Session) handle(env protocol.Envelope) {
	var err error
	switch env.Type {
	case protocol.TypeWelcome:
		err = s.onWelcome(env)
	case protocol.TypeUserJoined:
		err = s.onUserJoined(env)
	case protocol.TypeIncomingOffer:
		err = s.onIncomingOffer(env)
	case protocol.TypeYourAnswer:
		err = s.onAnswer(env)
	case protocol.TypeICECandidate:
		err = s.onRemoteCandidate(env)
	case protocol.TypePeerLeft:
		err = s.onPeerLeft(env)
	case protocol.TypeRoomFull:
		s.fail(ErrRoomFull)
	case protocol.TypeEvicted:
		s.fail(ErrEvicted)
	case protocol.TypePong:
	default:
		s.logger.Debug().Str("type", env.Type).Msg("ignored event")
	}
	if err != nil && !s.closed() {
		s.report(err)
	}
}

func (s *Session) onWelcome(env protocol.Envelope) error {
	var w protocol.Welcome
	if err := env.Bind(&w); err != nil {
		return err
	}
	s.self = w.ID
	s.logger = s.logger.With().Str("self", string(w.ID)).Logger()
	return nil
}

func (s *Session) onUserJoined(env protocol.Envelope) error {
	var ann protocol.UserJoined
	if err := env.Bind(&ann); err != nil {
		return err
	}
	other, ok := ann.Other(s.self)
	if !ok {
		return fmt.Errorf("pairing %s/%s does not include %q", ann.First, ann.Second, s.self)
	}
	if s.peer != "" && s.peer != other {
		// The previous peer's departure has not reached us yet.
		s.logger.Info().Str("old", string(s.peer)).Str("new", string(other)).Msg("re-paired before peer-left")
		if err := s.dropPeer(); err != nil {
			s.fail(err)
			return nil
		}
	}
	s.role = domain.RoleOf(s.self, ann)
	s.learnPeer(other)
	if s.cfg.Roles == FirstInitiates && s.role == domain.RoleCaller {
		return s.makeCall()
	}
	return nil
}

func (s *Session) onIncomingOffer(env protocol.Envelope) error {
	var in protocol.IncomingOffer
	if err := env.Bind(&in); err != nil {
		return err
	}
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(in.Offer, &offer); err != nil {
		return fmt.Errorf("offer from %s: %w", in.From, err)
	}
	if s.peer != "" && in.From != s.peer {
		s.logger.Warn().Str("from", string(in.From)).Str("peer", string(s.peer)).Msg("offer from non-peer ignored")
		return nil
	}
	if s.peer == "" {
		s.learnPeer(in.From)
	}
	if s.role == domain.RoleUnknown {
		s.role = domain.RoleCallee
	}

	if s.offerPending {
		// Both sides offered. The earlier joiner keeps its offer.
		if s.role == domain.RoleCaller {
			s.logger.Info().Str("from", string(in.From)).Msg("glare: keeping local offer")
			return nil
		}
		if err := s.engine.Rollback(); err != nil {
			return fmt.Errorf("rollback local offer: %w", err)
		}
		s.offerPending = false
	}

	if err := s.engine.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("apply offer: %w", err)
	}
	if s.closed() {
		return nil
	}
	answer, err := s.engine.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if s.closed() {
		return nil
	}
	if err := s.engine.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("apply answer: %w", err)
	}
	if s.closed() {
		return nil
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return s.send(protocol.TypeAnswer, protocol.Answer{ToID: in.From, Answer: raw})
}

func (s *Session) onAnswer(env protocol.Envelope) error {
	var in protocol.YourAnswer
	if err := env.Bind(&in); err != nil {
		return err
	}
	if !s.offerPending {
		return fmt.Errorf("%w from %s", ErrUnexpected, in.From)
	}
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(in.Answer, &answer); err != nil {
		return fmt.Errorf("answer from %s: %w", in.From, err)
	}
	if err := s.engine.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("apply answer: %w", err)
	}
	s.offerPending = false
	return nil
}

func (s *Session) onRemoteCandidate(env protocol.Envelope) error {
	var in protocol.InboundCandidate
	if err := env.Bind(&in); err != nil {
		return err
	}
	var c webrtc.ICECandidateInit
	if err := json.Unmarshal(in.Candidate, &c); err != nil {
		return fmt.Errorf("candidate from %s: %w", in.From, err)
	}
	if err := s.engine.AddICECandidate(c); err != nil {
		return fmt.Errorf("add candidate from %s: %w", in.From, err)
	}
	return nil
}

func (s *Session) onPeerLeft(env protocol.Envelope) error {
	var in protocol.PeerLeft
	if err := env.Bind(&in); err != nil {
		return err
	}
	if in.ID != s.peer {
		s.logger.Debug().Str("id", string(in.ID)).Msg("peer-left for unknown participant")
		return nil
	}
	s.logger.Info().Str("peer", string(in.ID)).Msg("peer left")
	if err := s.dropPeer(); err != nil {
		s.fail(err)
	}
	return nil
}

// onLocalCandidate sends or buffers a candidate gathered by engine gen.
func (s *Session) onLocalCandidate(gen uint64, c webrtc.ICECandidateInit) {
	if gen != s.gen {
		return
	}
	if s.peer == "" {
		s.buffer = append(s.buffer, c)
		return
	}
	s.sendCandidate(c)
}

func (s *Session) onEngineState(gen uint64, st webrtc.PeerConnectionState) {
	if gen != s.gen {
		return
	}
	s.logger.Debug().Str("pc", st.String()).Msg("engine state")
	switch st {
	case webrtc.PeerConnectionStateConnected:
		if s.peer != "" {
			s.setState(StateConnected)
		}
	case webrtc.PeerConnectionStateFailed:
		s.report(fmt.Errorf("media connection to %s failed", s.peer))
	}
}

func (s *Session) sendCandidate(c webrtc.ICECandidateInit) {
	raw, err := json.Marshal(c)
	if err != nil {
		s.report(err)
		return
	}
	if err := s.send(protocol.TypeICECandidate, protocol.OutboundCandidate{ToID: s.peer, Candidate: raw}); err != nil {
		s.report(fmt.Errorf("send candidate: %w", err))
	}
}
