package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewRoomID(t *testing.T) {
	if _, err := NewRoomID("   "); !errors.Is(err, ErrRoomIDEmpty) {
		t.Fatalf("err=%v, want ErrRoomIDEmpty", err)
	}
	id, err := NewRoomID("  R1 ")
	if err != nil || id != "R1" {
		t.Fatalf("id=%q err=%v", id, err)
	}
	long, err := NewRoomID(strings.Repeat("x", MaxRoomIDLen+10))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(long) != MaxRoomIDLen {
		t.Fatalf("len=%d, want %d", len(long), MaxRoomIDLen)
	}

	// a two-byte rune straddling the cap is dropped whole
	wide, err := NewRoomID(strings.Repeat("x", MaxRoomIDLen-1) + "éé")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !utf8.ValidString(string(wide)) || len(wide) != MaxRoomIDLen-1 {
		t.Fatalf("wide id len=%d valid=%v", len(wide), utf8.ValidString(string(wide)))
	}
}

func TestPairingAnnouncementRoles(t *testing.T) {
	a := PairingAnnouncement{First: "A", Second: "B"}

	if other, ok := a.Other("A"); !ok || other != "B" {
		t.Fatalf("Other(A)=%q,%v", other, ok)
	}
	if other, ok := a.Other("B"); !ok || other != "A" {
		t.Fatalf("Other(B)=%q,%v", other, ok)
	}
	if _, ok := a.Other("C"); ok {
		t.Fatalf("C is not a member")
	}
	if a.Initiator() != "A" {
		t.Fatalf("initiator=%q", a.Initiator())
	}
	if RoleOf("A", a) != RoleCaller || RoleOf("B", a) != RoleCallee || RoleOf("C", a) != RoleUnknown {
		t.Fatalf("unexpected roles")
	}
}
