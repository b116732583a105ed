package media

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
)

// PacketSource is the read side of a remote track.
type PacketSource interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// Sink drains one remote track and fans its packets out to Targets.
// A remote track must be read continuously or pion's buffers fill up, so a
// Sink with no targets still counts and discards.
type Sink struct {
	Src PacketSource

	mu      sync.RWMutex
	targets map[string]*Target

	packets atomic.Uint64
	bytes   atomic.Uint64
}

func NewSink(src PacketSource) *Sink {
	return &Sink{
		Src:     src,
		targets: make(map[string]*Target),
	}
}

// Run reads until the source fails or ctx is done.
func (s *Sink) Run(ctx context.Context, logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("sink stopped")
			s.detachAll()
			return
		default:
		}
		pkt, _, err := s.Src.ReadRTP()
		if err != nil {
			logger.Debug().Err(err).Msg("remote track ended")
			s.detachAll()
			return
		}
		s.packets.Add(1)
		s.bytes.Add(uint64(len(pkt.Payload)))
		s.forward(pkt, logger)
	}
}

func (s *Sink) forward(pkt *rtp.Packet, logger *zerolog.Logger) {
	s.mu.RLock()
	snapshot := maps.Clone(s.targets)
	s.mu.RUnlock()

	var gone []string
	for id, t := range snapshot {
		switch t.State() {
		case TargetDetached:
			gone = append(gone, id)
		case TargetActive:
			if err := t.w.WriteRTP(pkt); err != nil {
				logger.Warn().Err(err).Str("target", id).Msg("write failed, detaching target")
				t.Detach()
				gone = append(gone, id)
			}
		}
	}
	if len(gone) > 0 {
		s.mu.Lock()
		for _, id := range gone {
			delete(s.targets, id)
		}
		s.mu.Unlock()
	}
}

func (s *Sink) detachAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.targets {
		t.Detach()
	}
}

// Attach adds w under id, replacing any target with the same id.
func (s *Sink) Attach(id string, w PacketWriter) *Target {
	t := &Target{w: w}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.targets[id]; ok {
		old.Detach()
	}
	s.targets[id] = t
	return t
}

func (s *Sink) TargetCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.targets)
}

// Stats returns packets and payload bytes read so far.
func (s *Sink) Stats() (packets, bytes uint64) {
	return s.packets.Load(), s.bytes.Load()
}
