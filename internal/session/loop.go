package session

import (
	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/protocol"
)

func (s *Session) run() {
	defer close(s.done)
	defer s.teardown()
	for {
		select {
		case <-s.ctx.Done():
			return
		case op := <-s.ops:
			op()
		}
	}
}

// read forwards inbound frames to the session goroutine in arrival order.
func (s *Session) read(ch core.SignalChannel) {
	in := ch.Incoming()
	for {
		select {
		case <-s.ctx.Done():
			return
		case env, ok := <-in:
			if !ok {
				_ = s.post(func() { s.fail(ErrChannelLost) })
				return
			}
			if s.post(func() { s.handle(env) }) != nil {
				return
			}
		}
	}
}

// teardown runs exactly once, after the loop stopped or a failed Start.
func (s *Session) teardown() {
	if s.local != nil {
		s.local.Stop()
	}
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("close engine")
		}
		s.engine = nil
	}
	if s.ch != nil {
		if s.joined {
			if err := s.send(protocol.TypeLeaveRoom, protocol.LeaveRoom{RoomID: s.cfg.Room}); err != nil {
				s.logger.Debug().Err(err).Msg("leave-room not delivered")
			}
		}
		s.ch.Close()
	}
	s.buffer = nil
	s.setPeer("")
	s.setState(StateClosed)
}
