package core

import (
	"slices"
	"sync"

	"github.com/dkeye/duocall/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	id      domain.RoomID
	mu      sync.RWMutex
	members []domain.ParticipantID
}

func NewRoomService(id domain.RoomID) RoomService {
	return &roomImpl{id: id, members: make([]domain.ParticipantID, 0, 2)}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) Members() []domain.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.members)
}

func (r *roomImpl) Contains(pid domain.ParticipantID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.members, pid)
}

func (r *roomImpl) Add(pid domain.ParticipantID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.members, pid) {
		return len(r.members)
	}
	r.members = append(r.members, pid)
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("pid", string(pid)).Int("size", len(r.members)).Msg("member added")
	return len(r.members)
}

func (r *roomImpl) Remove(pid domain.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.members, pid)
	if i < 0 {
		return false
	}
	r.members = slices.Delete(r.members, i, i+1)
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("pid", string(pid)).Int("size", len(r.members)).Msg("member removed")
	return true
}

func (r *roomImpl) Oldest() (domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.members) == 0 {
		return "", false
	}
	return r.members[0], true
}
