package media

import (
	"sync/atomic"

	"github.com/pion/rtp"
)

// PacketWriter receives forwarded RTP. *oggwriter.OggWriter and
// *webrtc.TrackLocalStaticRTP satisfy it.
type PacketWriter interface {
	WriteRTP(*rtp.Packet) error
}

type TargetState int32

const (
	TargetActive TargetState = iota
	TargetPaused
	TargetDetached
)

func (s TargetState) String() string {
	switch s {
	case TargetActive:
		return "active"
	case TargetPaused:
		return "paused"
	case TargetDetached:
		return "detached"
	}
	return "unknown"
}

// Target is one destination a Sink forwards to. A paused target skips
// packets; a detached one is dropped by the Sink on the next packet.
type Target struct {
	w     PacketWriter
	state atomic.Int32
}

func (t *Target) State() TargetState { return TargetState(t.state.Load()) }

// Pause and Resume have no effect once the target is detached.
func (t *Target) Pause()  { t.state.CompareAndSwap(int32(TargetActive), int32(TargetPaused)) }
func (t *Target) Resume() { t.state.CompareAndSwap(int32(TargetPaused), int32(TargetActive)) }

func (t *Target) Detach() { t.state.Store(int32(TargetDetached)) }
