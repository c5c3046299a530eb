package registry

import (
	"sync"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(NewMemoryStore())
}

func TestRegistry_CreateAndFindRoom(t *testing.T) {
	reg := newTestRegistry(t)

	room, err := reg.CreateRoom("room1", "Room One", 4)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.Phase != "awaiting_players" {
		t.Errorf("Expected initial phase awaiting_players, got %s", room.Phase)
	}

	found, err := reg.Find("room1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found.MaxPlayers != 4 || found.MemberCount != 0 {
		t.Errorf("Unexpected room state: %+v", found)
	}

	if _, err := reg.Find("missing"); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestRegistry_CreateMember_RoomNotFound(t *testing.T) {
	reg := newTestRegistry(t)

	if _, _, err := reg.CreateMember("missing", "alice"); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestRegistry_CreateMember_CountMatchesRoster(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CreateRoom("room1", "Room One", 3)

	names := []string{"alice", "bob", "carol"}
	for _, name := range names {
		member, room, err := reg.CreateMember("room1", name)
		if err != nil {
			t.Fatalf("CreateMember(%s) failed: %v", name, err)
		}
		members, err := reg.ListMembers("room1")
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if room.MemberCount != len(members) {
			t.Errorf("member_count %d != roster size %d after adding %s",
				room.MemberCount, len(members), member.Name)
		}
	}
}

func TestRegistry_ListMembers_InsertionOrder(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CreateRoom("room1", "Room One", 3)

	names := []string{"alice", "bob", "carol"}
	for _, name := range names {
		if _, _, err := reg.CreateMember("room1", name); err != nil {
			t.Fatalf("CreateMember(%s) failed: %v", name, err)
		}
	}

	members, err := reg.ListMembers("room1")
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	for i, name := range names {
		if members[i].Name != name {
			t.Errorf("Expected roster[%d] = %s, got %s", i, name, members[i].Name)
		}
	}
}

func TestRegistry_CreateMember_FullRoom(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CreateRoom("room1", "Room One", 1)

	if _, _, err := reg.CreateMember("room1", "alice"); err != nil {
		t.Fatalf("First CreateMember failed: %v", err)
	}
	if _, _, err := reg.CreateMember("room1", "bob"); err != ErrRoomFull {
		t.Errorf("Expected ErrRoomFull, got %v", err)
	}

	room, _ := reg.Find("room1")
	if room.MemberCount != 1 {
		t.Errorf("Expected member count 1 after rejected join, got %d", room.MemberCount)
	}
}

// 一个空位、两个并发请求：容量检查和写入是单个原子步骤，
// 必须恰好一个成功、一个收到 ErrRoomFull
func TestRegistry_ConcurrentJoins_OneSlot(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CreateRoom("room1", "Room One", 2)
	reg.CreateMember("room1", "alice")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = reg.CreateMember("room1", "challenger")
		}(i)
	}
	wg.Wait()

	successes, fulls := 0, 0
	for _, err := range errs {
		switch err {
		case nil:
			successes++
		case ErrRoomFull:
			fulls++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("Expected exactly 1 successful join, got %d", successes)
	}
	if fulls != attempts-1 {
		t.Errorf("Expected %d ErrRoomFull, got %d", attempts-1, fulls)
	}

	room, _ := reg.Find("room1")
	if room.MemberCount != 2 {
		t.Errorf("Expected member count 2, got %d", room.MemberCount)
	}
}

func TestRegistry_RemoveMember(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CreateRoom("room1", "Room One", 2)
	member, _, _ := reg.CreateMember("room1", "alice")
	reg.CreateMember("room1", "bob")

	room, members, err := reg.RemoveMember(member.ID)
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if room.MemberCount != 1 {
		t.Errorf("Expected member count 1, got %d", room.MemberCount)
	}
	if len(members) != 1 || members[0].Name != "bob" {
		t.Errorf("Unexpected roster after removal: %+v", members)
	}

	// 重复移除不会再次递减
	if _, _, err := reg.RemoveMember(member.ID); err != ErrMemberNotFound {
		t.Errorf("Expected ErrMemberNotFound on second removal, got %v", err)
	}
	room, _ = reg.Find("room1")
	if room.MemberCount != 1 {
		t.Errorf("Member count double-decremented: %d", room.MemberCount)
	}
}

func TestRegistry_SetPhaseAndTheme(t *testing.T) {
	reg := newTestRegistry(t)
	reg.CreateRoom("room1", "Room One", 2)

	if err := reg.SetTheme("room1", "animals"); err != nil {
		t.Fatalf("SetTheme failed: %v", err)
	}
	room, _ := reg.Find("room1")
	if room.Theme != "animals" {
		t.Errorf("Expected theme animals, got %s", room.Theme)
	}

	if err := reg.SetTheme("missing", "animals"); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}
