package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// MediaEngine is the peer-to-peer media stack a negotiation session drives.
// Calls on one engine must not run concurrently; callbacks may fire on any
// goroutine.
type MediaEngine interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	// Rollback discards a pending local offer.
	Rollback() error
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver))
	OnConnectionStateChange(func(webrtc.PeerConnectionState))
	// AddLocalTrack attaches a local track to the connection.
	AddLocalTrack(webrtc.TrackLocal) error
	// Close should stop all underlying media resources. Safe to call twice.
	Close() error
}

// LocalMedia is a set of acquired local tracks.
type LocalMedia interface {
	Tracks() []webrtc.TrackLocal
	// Stop releases the capture. Safe to call twice.
	Stop()
}

// MediaSource acquires local media. It may block, e.g. on device access.
type MediaSource interface {
	Acquire(ctx context.Context) (LocalMedia, error)
}
