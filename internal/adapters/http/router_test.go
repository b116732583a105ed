package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/duocall/internal/app"
	"github.com/dkeye/duocall/internal/app/orch"
	"github.com/dkeye/duocall/internal/config"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/dkeye/duocall/internal/protocol"
	"github.com/gorilla/websocket"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:       "test",
		ReadLimit:  65536,
		PingPeriod: time.Second,
		PongWait:   2 * time.Second,
		WriteWait:  time.Second,
		SendBuffer: 16,
		Secret:     "test-secret",
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	o := orch.New(app.RejectPolicy{})
	ts := httptest.NewServer(SetupRouter(ctx, testConfig(), o))
	t.Cleanup(ts.Close)
	return ts, o
}

type wsPeer struct {
	t  *testing.T
	ws *websocket.Conn
	id domain.ParticipantID
}

func dial(t *testing.T, ts *httptest.Server) *wsPeer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/signal"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	p := &wsPeer{t: t, ws: ws}

	env := p.next()
	if env.Type != protocol.TypeWelcome {
		t.Fatalf("first frame=%q, want welcome", env.Type)
	}
	var w protocol.Welcome
	if err := env.Bind(&w); err != nil || w.ID == "" {
		t.Fatalf("welcome=%+v err=%v", w, err)
	}
	p.id = w.ID
	return p
}

func (p *wsPeer) next() protocol.Envelope {
	p.t.Helper()
	_ = p.ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := p.ws.ReadMessage()
	if err != nil {
		p.t.Fatalf("read: %v", err)
	}
	env, err := protocol.Decode(raw)
	if err != nil {
		p.t.Fatalf("decode: %v", err)
	}
	return env
}

func (p *wsPeer) expect(typ string, into any) {
	p.t.Helper()
	env := p.next()
	if env.Type != typ {
		p.t.Fatalf("got %q, want %q", env.Type, typ)
	}
	if into != nil {
		if err := env.Bind(into); err != nil {
			p.t.Fatalf("bind %s: %v", typ, err)
		}
	}
}

func (p *wsPeer) send(typ string, payload any) {
	p.t.Helper()
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		p.t.Fatalf("encode: %v", err)
	}
	if err := p.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		p.t.Fatalf("write: %v", err)
	}
}

func TestRouter_Liveness(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "I am alive" {
		t.Fatalf("status=%d body=%q", resp.StatusCode, body)
	}
}

func TestSignal_PairRelayAndDisconnect(t *testing.T) {
	ts, o := newTestServer(t)
	a := dial(t, ts)
	b := dial(t, ts)
	if a.id == b.id {
		t.Fatalf("participants share id %q", a.id)
	}

	a.send(protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "R1"})
	// each socket has its own read pump; let A's join land first
	waitRoomSize(t, o, "R1", 1)
	// bare string payload, as older clients send it
	b.send(protocol.TypeJoinRoom, "R1")

	for _, p := range []*wsPeer{a, b} {
		var ann protocol.UserJoined
		p.expect(protocol.TypeUserJoined, &ann)
		if ann.First != a.id || ann.Second != b.id {
			t.Fatalf("announcement=%+v, want {%s %s}", ann, a.id, b.id)
		}
	}

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	a.send(protocol.TypeOffer, protocol.Offer{ToID: b.id, Offer: offer})
	var in protocol.IncomingOffer
	b.expect(protocol.TypeIncomingOffer, &in)
	if in.From != a.id || string(in.Offer) != string(offer) {
		t.Fatalf("incoming-offer=%+v", in)
	}

	b.send(protocol.TypePing, nil)
	b.expect(protocol.TypePong, nil)

	a.ws.Close()
	var left protocol.PeerLeft
	b.expect(protocol.TypePeerLeft, &left)
	if left.ID != a.id {
		t.Fatalf("peer-left id=%q", left.ID)
	}

	room, ok := o.Rooms.Get("R1")
	if !ok || room.MemberCount() != 1 {
		t.Fatalf("R1 must keep one member")
	}

	resp, err := http.Get(ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("get rooms: %v", err)
	}
	defer resp.Body.Close()
	var listing struct {
		Rooms []struct {
			ID          string `json:"id"`
			MemberCount int    `json:"member_count"`
		} `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(listing.Rooms) != 1 || listing.Rooms[0].ID != "R1" || listing.Rooms[0].MemberCount != 1 {
		t.Fatalf("rooms=%+v", listing.Rooms)
	}
}

func TestSignal_LeaveRoomKeepsChannel(t *testing.T) {
	ts, o := newTestServer(t)
	a := dial(t, ts)
	b := dial(t, ts)
	a.send(protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "R1"})
	b.send(protocol.TypeJoinRoom, protocol.JoinRoom{RoomID: "R1"})
	a.expect(protocol.TypeUserJoined, nil)
	b.expect(protocol.TypeUserJoined, nil)

	b.send(protocol.TypeLeaveRoom, protocol.LeaveRoom{RoomID: "R1"})
	a.expect(protocol.TypePeerLeft, nil)

	a.send(protocol.TypeLeaveRoom, protocol.LeaveRoom{RoomID: "R1"})
	a.send(protocol.TypePing, nil)
	a.expect(protocol.TypePong, nil)
	if _, ok := o.Rooms.Get("R1"); ok {
		t.Fatalf("R1 must be deleted")
	}
}

func waitRoomSize(t *testing.T, o *orch.Orchestrator, id domain.RoomID, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if room, ok := o.Rooms.Get(id); ok && room.MemberCount() == n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("room %s never reached %d members", id, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
