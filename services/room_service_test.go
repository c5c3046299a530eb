package services

import (
	"testing"

	"github.com/wfunc/roomserver/registry"
)

func newTestService(t *testing.T) (*RoomService, *registry.Registry) {
	t.Helper()
	reg := registry.New(registry.NewMemoryStore())
	return NewRoomService(reg, nil, 4), reg
}

func TestCreateRoom_DefaultCapacity(t *testing.T) {
	svc, reg := newTestService(t)

	room, err := svc.CreateRoom("Friday Night", 0)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.MaxPlayers != 4 {
		t.Errorf("Expected default capacity 4, got %d", room.MaxPlayers)
	}

	found, err := reg.Find(room.ID)
	if err != nil {
		t.Fatalf("Created room not in registry: %v", err)
	}
	if found.Name != "Friday Night" {
		t.Errorf("Unexpected room name %s", found.Name)
	}
}

func TestCreateRoomWithID_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateRoomWithID("lobby-1", "lobby-1", 2); err != nil {
		t.Fatalf("First CreateRoomWithID failed: %v", err)
	}
	if _, err := svc.CreateRoomWithID("lobby-1", "lobby-1", 2); err == nil {
		t.Error("Expected an error for a duplicate room id")
	}
}

func TestRoomStats_FromRegistry(t *testing.T) {
	svc, reg := newTestService(t)

	room, _ := svc.CreateRoom("Stats Room", 2)
	reg.CreateMember(room.ID, "alice")

	stats, err := svc.RoomStats(room.ID)
	if err != nil {
		t.Fatalf("RoomStats failed: %v", err)
	}
	if stats.MemberCount != 1 || stats.MaxPlayers != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.Phase != "awaiting_players" {
		t.Errorf("Expected awaiting_players, got %s", stats.Phase)
	}
}
