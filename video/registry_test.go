package video

import "testing"

func TestRoomLifecycle(t *testing.T) {
	reg := NewRegistry()

	reg.AddParticipant("r1", Participant{UserID: "u1", UserName: "Ann", ConnectionID: "c1"})
	if !reg.HasRoom("r1") {
		t.Fatal("room should exist after first join")
	}
	reg.AppendMessage("r1", ChatMessage{UserName: "Ann", Message: "hi"})

	removed, ok := reg.RemoveParticipant("r1", "c1")
	if !ok || removed.UserID != "u1" {
		t.Fatalf("remove = %+v, %v", removed, ok)
	}
	if reg.HasRoom("r1") {
		t.Fatal("empty room must be deleted immediately")
	}

	// A fresh join creates a fresh room with no transcript carryover.
	reg.AddParticipant("r1", Participant{UserID: "u2", ConnectionID: "c2"})
	_, messages := reg.Snapshot("r1", "")
	if len(messages) != 0 {
		t.Fatalf("new room inherited %d old messages", len(messages))
	}
}

func TestAppendMessageToDeadRoomIsNoop(t *testing.T) {
	reg := NewRegistry()
	if reg.AppendMessage("ghost", ChatMessage{Message: "late"}) {
		t.Fatal("append to a missing room must be dropped")
	}
}

func TestNoDedupeByUser(t *testing.T) {
	reg := NewRegistry()
	// same user, two tabs
	reg.AddParticipant("r1", Participant{UserID: "u1", ConnectionID: "tab1"})
	reg.AddParticipant("r1", Participant{UserID: "u1", ConnectionID: "tab2"})

	if got := len(reg.Members("r1")); got != 2 {
		t.Fatalf("members = %d, want 2", got)
	}

	reg.RemoveParticipant("r1", "tab1")
	if !reg.HasRoom("r1") {
		t.Fatal("room should survive while the second tab remains")
	}
}

func TestSnapshotExcludesSelf(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", Participant{UserID: "u1", ConnectionID: "c1"})
	reg.AddParticipant("r1", Participant{UserID: "u2", ConnectionID: "c2"})

	participants, _ := reg.Snapshot("r1", "c2")
	if len(participants) != 1 || participants[0].ConnectionID != "c1" {
		t.Fatalf("snapshot = %+v", participants)
	}
}

func TestSideIndex(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("c1", "u1")

	if connID, ok := reg.ConnFor("u1"); !ok || connID != "c1" {
		t.Fatalf("ConnFor = %q, %v", connID, ok)
	}

	reg.Unbind("c1")
	if _, ok := reg.ConnFor("u1"); ok {
		t.Fatal("binding should be gone after unbind")
	}
}

func TestRoomsWithConnection(t *testing.T) {
	reg := NewRegistry()
	reg.AddParticipant("r1", Participant{ConnectionID: "c1"})
	reg.AddParticipant("r2", Participant{ConnectionID: "c1"})
	reg.AddParticipant("r3", Participant{ConnectionID: "other"})

	rooms := reg.RoomsWithConnection("c1")
	if len(rooms) != 2 {
		t.Fatalf("rooms = %v, want r1 and r2", rooms)
	}
}
