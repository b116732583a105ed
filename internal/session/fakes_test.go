package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/pion/webrtc/v4"
)

type fakeEngine struct {
	mu      sync.Mutex
	calls   []string
	applied []string
	onICE   func(webrtc.ICECandidateInit)
	onState func(webrtc.PeerConnectionState)
	tracks  int
	closed  int

	rejectCandidate string
	// when gate is set SetRemoteDescription signals entered and waits
	gate    chan struct{}
	entered chan struct{}
}

func (e *fakeEngine) record(call string) {
	e.mu.Lock()
	e.calls = append(e.calls, call)
	e.mu.Unlock()
}

func (e *fakeEngine) CreateOffer() (webrtc.SessionDescription, error) {
	e.record("createOffer")
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}, nil
}

func (e *fakeEngine) CreateAnswer() (webrtc.SessionDescription, error) {
	e.record("createAnswer")
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}, nil
}

func (e *fakeEngine) SetLocalDescription(d webrtc.SessionDescription) error {
	e.record("setLocal:" + d.Type.String())
	return nil
}

func (e *fakeEngine) SetRemoteDescription(d webrtc.SessionDescription) error {
	e.record("setRemote:" + d.Type.String())
	if e.gate != nil {
		e.entered <- struct{}{}
		<-e.gate
	}
	return nil
}

func (e *fakeEngine) Rollback() error {
	e.record("rollback")
	return nil
}

func (e *fakeEngine) AddICECandidate(c webrtc.ICECandidateInit) error {
	if c.Candidate == e.rejectCandidate {
		return errors.New("rejected candidate")
	}
	e.mu.Lock()
	e.applied = append(e.applied, c.Candidate)
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) OnICECandidate(f func(webrtc.ICECandidateInit)) {
	e.mu.Lock()
	e.onICE = f
	e.mu.Unlock()
}

func (e *fakeEngine) OnTrack(func(*webrtc.TrackRemote, *webrtc.RTPReceiver)) {}

func (e *fakeEngine) OnConnectionStateChange(f func(webrtc.PeerConnectionState)) {
	e.mu.Lock()
	e.onState = f
	e.mu.Unlock()
}

func (e *fakeEngine) AddLocalTrack(webrtc.TrackLocal) error {
	e.mu.Lock()
	e.tracks++
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	e.closed++
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) emit(candidate string) {
	e.mu.Lock()
	f := e.onICE
	e.mu.Unlock()
	f(webrtc.ICECandidateInit{Candidate: candidate})
}

func (e *fakeEngine) setConn(st webrtc.PeerConnectionState) {
	e.mu.Lock()
	f := e.onState
	e.mu.Unlock()
	f(st)
}

func (e *fakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) Applied() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.applied...)
}

func (e *fakeEngine) Closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []protocol.Envelope
	in     chan protocol.Envelope
	closed int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{in: make(chan protocol.Envelope)}
}

func (c *fakeChannel) Send(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed > 0 {
		return errors.New("channel closed")
	}
	c.sent = append(c.sent, env)
	return nil
}

func (c *fakeChannel) Incoming() <-chan protocol.Envelope { return c.in }

func (c *fakeChannel) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func (c *fakeChannel) lose() { close(c.in) }

func (c *fakeChannel) sentOf(typ string) []protocol.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []protocol.Envelope
	for _, env := range c.sent {
		if env.Type == typ {
			out = append(out, env)
		}
	}
	return out
}

type fakeMedia struct {
	tracks []webrtc.TrackLocal
	stops  atomic.Int32
}

func (m *fakeMedia) Tracks() []webrtc.TrackLocal { return m.tracks }
func (m *fakeMedia) Stop()                       { m.stops.Add(1) }

type fakeSource struct{ media *fakeMedia }

func (s fakeSource) Acquire(context.Context) (core.LocalMedia, error) { return s.media, nil }

type harness struct {
	t  *testing.T
	s  *Session
	ch *fakeChannel

	mu      sync.Mutex
	engines []*fakeEngine
	errs    []error
	states  []State
}

type harnessOpt struct {
	roles  RolePolicy
	source core.MediaSource
	tweak  func(n int, e *fakeEngine)
}

func newHarness(t *testing.T, opt harnessOpt) *harness {
	t.Helper()
	h := &harness{t: t, ch: newFakeChannel()}
	h.s = New(Config{
		Room: "r1",
		Dial: func(context.Context) (core.SignalChannel, error) { return h.ch, nil },
		NewEngine: func() (core.MediaEngine, error) {
			e := &fakeEngine{}
			h.mu.Lock()
			n := len(h.engines)
			h.engines = append(h.engines, e)
			h.mu.Unlock()
			if opt.tweak != nil {
				opt.tweak(n, e)
			}
			return e, nil
		},
		Source: opt.source,
		Roles:  opt.roles,
		Hooks: Hooks{
			OnError: func(err error) {
				h.mu.Lock()
				h.errs = append(h.errs, err)
				h.mu.Unlock()
			},
			OnState: func(st State) {
				h.mu.Lock()
				h.states = append(h.states, st)
				h.mu.Unlock()
			},
		},
	})
	if err := h.s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = h.s.Close() })
	return h
}

func (h *harness) engine(i int) *fakeEngine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engines[i]
}

func (h *harness) engineCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.engines)
}

func (h *harness) errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}

// deliver hands env to the session reader. The channel is unbuffered, so
// every earlier frame has been queued to the loop once this returns.
func (h *harness) deliver(typ string, payload any) {
	h.t.Helper()
	env, err := protocol.NewEnvelope(typ, payload)
	if err != nil {
		h.t.Fatalf("envelope: %v", err)
	}
	select {
	case h.ch.in <- env:
	case <-h.s.Done():
		h.t.Fatalf("deliver %s: session closed", typ)
	case <-time.After(2 * time.Second):
		h.t.Fatalf("deliver %s: reader stuck", typ)
	}
}

// sync waits until everything delivered or emitted so far has been handled.
func (h *harness) sync() {
	h.t.Helper()
	h.deliver(protocol.TypePong, nil)
	done := make(chan struct{})
	if err := h.s.post(func() { close(done) }); err != nil {
		h.t.Fatalf("sync: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		h.t.Fatalf("session loop stuck")
	}
}

func (h *harness) pair(self, first, second string) {
	h.t.Helper()
	h.deliver(protocol.TypeWelcome, protocol.Welcome{ID: pid(self)})
	h.deliver(protocol.TypeUserJoined, protocol.UserJoined{First: pid(first), Second: pid(second)})
	h.waitFor("pairing handled", func() bool { return h.s.Peer() != "" })
	h.sync()
}

func (h *harness) waitFor(what string, cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func offerPayload(from string) protocol.IncomingOffer {
	raw, _ := json.Marshal(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 remote"})
	return protocol.IncomingOffer{From: pid(from), Offer: raw}
}

func answerPayload(from string) protocol.YourAnswer {
	raw, _ := json.Marshal(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 remote"})
	return protocol.YourAnswer{From: pid(from), Answer: raw}
}

func candidatePayload(from, candidate string) protocol.InboundCandidate {
	raw, _ := json.Marshal(webrtc.ICECandidateInit{Candidate: candidate})
	return protocol.InboundCandidate{From: pid(from), Candidate: raw}
}

func sentCandidates(t *testing.T, envs []protocol.Envelope) []protocol.OutboundCandidate {
	t.Helper()
	out := make([]protocol.OutboundCandidate, 0, len(envs))
	for _, env := range envs {
		var c protocol.OutboundCandidate
		if err := env.Bind(&c); err != nil {
			t.Fatalf("bind candidate: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func candidateText(t *testing.T, c protocol.OutboundCandidate) string {
	t.Helper()
	var init webrtc.ICECandidateInit
	if err := json.Unmarshal(c.Candidate, &init); err != nil {
		t.Fatalf("candidate json: %v", err)
	}
	return init.Candidate
}

func pid(s string) domain.ParticipantID { return domain.ParticipantID(s) }
