package core

import (
	"github.com/dkeye/duocall/internal/domain"
)

// RoomService is the core-facing API of a room.
// It owns the ordered membership but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	// Members returns participants in join order.
	Members() []domain.ParticipantID
	Contains(pid domain.ParticipantID) bool
	// Add appends pid and returns the new size. Adding a present member is
	// a no-op.
	Add(pid domain.ParticipantID) int
	Remove(pid domain.ParticipantID) bool
	Oldest() (domain.ParticipantID, bool)
}

type RoomInfo struct {
	ID          domain.RoomID          `json:"id"`
	MemberCount int                    `json:"member_count"`
	Members     []domain.ParticipantID `json:"members"`
}
