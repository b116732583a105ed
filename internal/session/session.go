// Package session drives one participant's offer/answer/ICE exchange.
//
// Every engine call and every signaling handler of a Session runs on a
// single goroutine. Inbound frames and engine callbacks are queued to it,
// so they never interleave with an in-flight description operation.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const opQueueSize = 128

// Hooks observe a session. Hooks fired while Start is still running (local
// media failure, the move to AwaitingPeer) run on the goroutine calling
// Start, before it returns. All later hooks run on the session goroutine.
// Hooks must not block or call Close.
type Hooks struct {
	OnState func(State)
	OnPeer  func(domain.ParticipantID)
	OnError func(error)
	OnTrack func(*webrtc.TrackRemote, *webrtc.RTPReceiver)
}

type Config struct {
	Room domain.RoomID
	// Dial opens the signal channel. The session owns and closes it.
	Dial func(ctx context.Context) (core.SignalChannel, error)
	// NewEngine builds a media engine; called again after the peer leaves.
	NewEngine func() (core.MediaEngine, error)
	// Source may be nil for a receive-only participant.
	Source core.MediaSource
	Roles  RolePolicy
	Hooks  Hooks
}

type Session struct {
	cfg    Config
	logger zerolog.Logger
	state  atomic.Int32

	mu        sync.Mutex
	started   bool
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
	ops       chan func()

	peerMu   sync.RWMutex
	peerSnap domain.ParticipantID

	// owned by the session goroutine
	ch           core.SignalChannel
	engine       core.MediaEngine
	gen          uint64
	local        core.LocalMedia
	self         domain.ParticipantID
	peer         domain.ParticipantID
	role         domain.Role
	buffer       []webrtc.ICECandidateInit
	offerPending bool
	joined       bool
}

func New(cfg Config) *Session {
	return &Session{
		cfg:    cfg,
		logger: log.With().Str("module", "session").Str("room", string(cfg.Room)).Logger(),
		done:   make(chan struct{}),
		ops:    make(chan func(), opQueueSize),
	}
}

func (s *Session) State() State { return State(s.state.Load()) }

// Peer returns the current peer id, empty while no peer is known.
func (s *Session) Peer() domain.ParticipantID {
	s.peerMu.RLock()
	defer s.peerMu.RUnlock()
	return s.peerSnap
}

// Done is closed once the session is fully torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start opens the channel, acquires local media, builds the engine and
// joins the room. A media acquisition failure is reported through
// Hooks.OnError and the session continues receive-only.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.State() == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if err := s.setup(); err != nil {
		s.cancel()
		s.teardown()
		close(s.done)
		return err
	}

	go s.run()
	go s.read(s.ch)
	return nil
}

func (s *Session) setup() error {
	ch, err := s.cfg.Dial(s.ctx)
	if err != nil {
		return fmt.Errorf("open signal channel: %w", err)
	}
	s.ch = ch

	if s.cfg.Source != nil {
		local, err := s.cfg.Source.Acquire(s.ctx)
		if err != nil {
			s.report(fmt.Errorf("acquire local media: %w", err))
		} else {
			s.local = local
		}
	}
	if s.ctx.Err() != nil {
		return ErrClosed
	}

	if err := s.replaceEngine(); err != nil {
		return err
	}

	if err := s.send(protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: s.cfg.Room}); err != nil {
		return fmt.Errorf("join %s: %w", s.cfg.Room, err)
	}
	s.joined = true
	s.setState(StateAwaitingPeer)
	return nil
}

// MakeCall sends an offer to the current peer.
func (s *Session) MakeCall(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.post(func() { reply <- s.makeCall() }); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Close tears the session down and waits for it. The relay is told once;
// later calls return nil immediately after the first one finished.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.started {
			s.setState(StateClosed)
			close(s.done)
			return
		}
		s.cancel()
	})
	<-s.done
	return nil
}

func (s *Session) post(op func()) error {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		if s.State() == StateClosed {
			return ErrClosed
		}
		return ErrNotStarted
	}
	select {
	case <-ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case s.ops <- op:
		return nil
	case <-ctx.Done():
		return ErrClosed
	}
}

func (s *Session) closed() bool { return s.ctx.Err() != nil }

// fail closes the session because of err.
func (s *Session) fail(err error) {
	s.report(err)
	s.cancel()
}

func (s *Session) report(err error) {
	s.logger.Warn().Err(err).Str("state", s.State().String()).Msg("session error")
	if fn := s.cfg.Hooks.OnError; fn != nil {
		fn(err)
	}
}

func (s *Session) setState(next State) {
	for {
		cur := State(s.state.Load())
		if cur == next || cur == StateClosed {
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(next)) {
			s.logger.Info().Str("from", cur.String()).Str("to", next.String()).Msg("state")
			if fn := s.cfg.Hooks.OnState; fn != nil {
				fn(next)
			}
			return
		}
	}
}

func (s *Session) setPeer(pid domain.ParticipantID) {
	s.peer = pid
	s.peerMu.Lock()
	s.peerSnap = pid
	s.peerMu.Unlock()
	if pid != "" {
		if fn := s.cfg.Hooks.OnPeer; fn != nil {
			fn(pid)
		}
	}
}

func (s *Session) send(typ string, payload any) error {
	env, err := protocol.NewEnvelope(typ, payload)
	if err != nil {
		return err
	}
	return s.ch.Send(env)
}
