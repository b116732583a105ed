package core

import (
	"errors"

	"github.com/dkeye/duocall/internal/protocol"
)

// Frame is one encoded signaling message.
type Frame []byte

var ErrBackpressure = errors.New("backpressure")

// SignalConnection abstracts the relay side of a participant's channel.
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: a full queue yields ErrBackpressure.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// SignalChannel is the participant side of the channel: ordered, exactly
// once per delivered frame. Incoming is closed when the channel is lost.
type SignalChannel interface {
	Send(protocol.Envelope) error
	Incoming() <-chan protocol.Envelope
	Close()
}
