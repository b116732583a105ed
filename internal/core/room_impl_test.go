package core

import (
	"slices"
	"testing"

	"github.com/dkeye/duocall/internal/domain"
)

func TestRoomService_KeepsJoinOrder(t *testing.T) {
	r := NewRoomService("R1")

	if n := r.Add("A"); n != 1 {
		t.Fatalf("size=%d, want 1", n)
	}
	if n := r.Add("B"); n != 2 {
		t.Fatalf("size=%d, want 2", n)
	}
	if n := r.Add("A"); n != 2 {
		t.Fatalf("re-adding a member changed size to %d", n)
	}

	want := []domain.ParticipantID{"A", "B"}
	if got := r.Members(); !slices.Equal(got, want) {
		t.Fatalf("members=%v, want %v", got, want)
	}
	if oldest, ok := r.Oldest(); !ok || oldest != "A" {
		t.Fatalf("oldest=%q,%v", oldest, ok)
	}
}

func TestRoomService_Remove(t *testing.T) {
	r := NewRoomService("R1")
	r.Add("A")
	r.Add("B")

	if !r.Remove("A") {
		t.Fatalf("remove A reported absent")
	}
	if r.Remove("A") {
		t.Fatalf("second remove of A reported present")
	}
	if r.Contains("A") || !r.Contains("B") || r.MemberCount() != 1 {
		t.Fatalf("unexpected members %v", r.Members())
	}
	if oldest, _ := r.Oldest(); oldest != "B" {
		t.Fatalf("oldest=%q, want B", oldest)
	}

	r.Remove("B")
	if _, ok := r.Oldest(); ok {
		t.Fatalf("empty room has no oldest member")
	}
}

func TestRoomService_MembersIsACopy(t *testing.T) {
	r := NewRoomService("R1")
	r.Add("A")
	snap := r.Members()
	snap[0] = "Z"
	if got := r.Members(); got[0] != "A" {
		t.Fatalf("snapshot aliased room state: %v", got)
	}
}
