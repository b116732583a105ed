package session

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/pion/webrtc/v4"
)

// learnPeer records the peer and releases the candidates buffered so far.
func (s *Session) learnPeer(pid domain.ParticipantID) {
	if s.peer == pid {
		return
	}
	s.setPeer(pid)
	s.setState(StateNegotiating)
	pending := s.buffer
	s.buffer = nil
	for _, c := range pending {
		s.sendCandidate(c)
	}
}

// dropPeer forgets the current peer and starts over on a fresh engine.
func (s *Session) dropPeer() error {
	s.setPeer("")
	s.role = domain.RoleUnknown
	s.offerPending = false
	if err := s.replaceEngine(); err != nil {
		return err
	}
	s.setState(StateAwaitingPeer)
	return nil
}

func (s *Session) makeCall() error {
	if s.closed() {
		return ErrClosed
	}
	if s.peer == "" {
		return ErrNoPeer
	}
	if s.cfg.Roles == FirstInitiates && s.role != domain.RoleCaller {
		return ErrNotInitiator
	}
	offer, err := s.engine.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if s.closed() {
		return ErrClosed
	}
	if err := s.engine.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("apply offer: %w", err)
	}
	if s.closed() {
		return ErrClosed
	}
	s.offerPending = true
	raw, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return s.send(protocol.TypeOffer, protocol.Offer{ToID: s.peer, Offer: raw})
}

// replaceEngine closes the current engine and builds a fresh one with the
// local tracks attached. Callbacks of older engines are ignored from here on.
func (s *Session) replaceEngine() error {
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close engine")
		}
		s.engine = nil
	}
	s.gen++
	s.buffer = nil

	e, err := s.cfg.NewEngine()
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	gen := s.gen
	e.OnICECandidate(func(c webrtc.ICECandidateInit) {
		_ = s.post(func() { s.onLocalCandidate(gen, c) })
	})
	e.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		_ = s.post(func() { s.onEngineState(gen, st) })
	})
	e.OnTrack(func(t *webrtc.TrackRemote, r *webrtc.RTPReceiver) {
		_ = s.post(func() {
			if gen == s.gen && s.cfg.Hooks.OnTrack != nil {
				s.cfg.Hooks.OnTrack(t, r)
			}
		})
	})
	s.engine = e

	if s.local != nil {
		for _, t := range s.local.Tracks() {
			if err := e.AddLocalTrack(t); err != nil {
				s.report(fmt.Errorf("attach track %s: %w", t.ID(), err))
			}
		}
	}
	return nil
}
