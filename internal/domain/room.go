package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const MaxRoomIDLen = 64

var ErrRoomIDEmpty = errors.New("room id empty")

type RoomID string

// NewRoomID trims whitespace and caps the length at MaxRoomIDLen bytes
// without splitting a rune. Uniqueness and format are not checked: any
// string names a rendezvous point.
func NewRoomID(raw string) (RoomID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrRoomIDEmpty
	}
	if len(raw) > MaxRoomIDLen {
		n := MaxRoomIDLen
		for n > 0 && !utf8.RuneStart(raw[n]) {
			n--
		}
		raw = raw[:n]
	}
	return RoomID(raw), nil
}

// PairingAnnouncement is broadcast once when a room reaches two members.
// First is the earlier joiner.
type PairingAnnouncement struct {
	First  ParticipantID `json:"first"`
	Second ParticipantID `json:"second"`
}

// Other returns the counterpart of self, and false if self is not paired.
func (a PairingAnnouncement) Other(self ParticipantID) (ParticipantID, bool) {
	switch self {
	case a.First:
		return a.Second, true
	case a.Second:
		return a.First, true
	}
	return "", false
}

func (a PairingAnnouncement) Initiator() ParticipantID { return a.First }
