package app

import (
	"sync"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/rs/zerolog/log"
)

type participantEntry struct {
	Conn  core.SignalConnection
	Room  domain.RoomID
	Token string
}

// Registry maps live participants to their channels and current room.
type Registry struct {
	mu           sync.RWMutex
	participants map[domain.ParticipantID]*participantEntry
}

func NewRegistry() *Registry {
	return &Registry{
		participants: make(map[domain.ParticipantID]*participantEntry),
	}
}

// Bind registers a freshly connected channel. token is the HTTP client
// token, kept for log correlation only.
func (r *Registry) Bind(pid domain.ParticipantID, conn core.SignalConnection, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[pid] = &participantEntry{Conn: conn, Token: token}
	log.Info().Str("module", "app.registry").Str("pid", string(pid)).Str("token", token).Msg("bound participant")
}

func (r *Registry) Unbind(pid domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, pid)
	log.Info().Str("module", "app.registry").Str("pid", string(pid)).Msg("unbind participant")
}

func (r *Registry) Conn(pid domain.ParticipantID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.participants[pid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) RoomOf(pid domain.ParticipantID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.participants[pid]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

func (r *Registry) SetRoom(pid domain.ParticipantID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.participants[pid]
	if !ok {
		return false
	}
	e.Room = room
	log.Debug().Str("module", "app.registry").Str("pid", string(pid)).Str("room", string(room)).Msg("updated room")
	return true
}

func (r *Registry) ClearRoom(pid domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.participants[pid]; ok {
		e.Room = ""
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}
