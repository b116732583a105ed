package app

import (
	"sort"
	"sync"

	"github.com/dkeye/duocall/internal/core"
	"github.com/dkeye/duocall/internal/domain"
	"github.com/rs/zerolog/log"
)

// JoinResult describes one admission decision.
type JoinResult struct {
	Room     domain.RoomID
	Admitted bool
	Size     int
	// Evicted is the member removed to make room, if any.
	Evicted domain.ParticipantID
	// Paired is set only by the join that brought the room to exactly two.
	Paired *domain.PairingAnnouncement
}

// RoomManager owns every live room. One mutex covers the whole map, so a
// join and the announcement it triggers can never interleave with another
// join, and an emptied room is removed before anyone can observe it.
type RoomManager struct {
	mu     sync.Mutex
	rooms  map[domain.RoomID]core.RoomService
	policy JoinPolicy
}

func NewRoomManager(policy JoinPolicy) *RoomManager {
	if policy == nil {
		policy = RejectPolicy{}
	}
	return &RoomManager{
		rooms:  make(map[domain.RoomID]core.RoomService),
		policy: policy,
	}
}

// Join admits pid into room id, creating the room if absent. commit runs
// inside the critical section with the outcome, so announcements it sends
// are ordered with respect to every other membership change.
func (m *RoomManager) Join(id domain.RoomID, pid domain.ParticipantID, commit func(JoinResult)) JoinResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		room = core.NewRoomService(id)
		m.rooms[id] = room
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	}

	res := JoinResult{Room: id}
	if room.Contains(pid) {
		res.Admitted = true
		res.Size = room.MemberCount()
		return res
	}

	if room.MemberCount() >= RoomCapacity {
		switch m.policy.OnFull(room, pid) {
		case Reject:
			res.Size = room.MemberCount()
			log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("pid", string(pid)).Msg("join rejected, room full")
			if commit != nil {
				commit(res)
			}
			return res
		case EvictOldest:
			if oldest, ok := room.Oldest(); ok {
				room.Remove(oldest)
				res.Evicted = oldest
				log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("evicted", string(oldest)).Msg("evicted oldest member")
			}
		case Admit:
		}
	}

	res.Admitted = true
	res.Size = room.Add(pid)
	if res.Size == RoomCapacity {
		members := room.Members()
		res.Paired = &domain.PairingAnnouncement{First: members[0], Second: members[1]}
	}
	if commit != nil {
		commit(res)
	}
	return res
}

// Leave removes pid from room id and returns who is left. The room is
// deleted when its last member goes. commit, if set, runs inside the
// critical section when pid was removed, so departure notices are ordered
// with respect to the announcement of a later join.
func (m *RoomManager) Leave(id domain.RoomID, pid domain.ParticipantID, commit func(remaining []domain.ParticipantID)) (remaining []domain.ParticipantID, removed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[id]
	if !ok {
		return nil, false
	}
	removed = room.Remove(pid)
	remaining = room.Members()
	if removed && commit != nil {
		commit(remaining)
	}
	if len(remaining) == 0 {
		delete(m.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
	}
	return remaining, removed
}

func (m *RoomManager) Get(id domain.RoomID) (core.RoomService, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

func (m *RoomManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

func (m *RoomManager) List() []core.RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: r.MemberCount(), Members: r.Members()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
