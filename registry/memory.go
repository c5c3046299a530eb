// registry/memory.go
package registry

import (
	"sync"

	"github.com/wfunc/roomserver/models"
)

// MemoryStore 是进程内的默认存储实现。所有操作都在同一把锁下完成，
// 容量检查和写入因此天然是单个原子步骤。
type MemoryStore struct {
	rooms   map[string]*models.Room
	members map[string]*models.Member
	// roomID -> memberID 按加入顺序
	order map[string][]string
	mutex sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[string]*models.Room),
		members: make(map[string]*models.Member),
		order:   make(map[string][]string),
	}
}

func (s *MemoryStore) FindRoom(roomID string) (*models.Room, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (s *MemoryStore) CreateRoom(room *models.Room) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.rooms[room.ID]; exists {
		return ErrRoomExists
	}
	copied := *room
	s.rooms[room.ID] = &copied
	return nil
}

func (s *MemoryStore) InsertMember(member *models.Member) (*models.Room, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[member.RoomID]
	if !exists {
		return nil, ErrRoomNotFound
	}
	if room.MemberCount >= room.MaxPlayers {
		return nil, ErrRoomFull
	}

	copied := *member
	s.members[member.ID] = &copied
	s.order[room.ID] = append(s.order[room.ID], member.ID)
	room.MemberCount++

	updated := *room
	return &updated, nil
}

func (s *MemoryStore) RemoveMember(memberID string) (*models.Room, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	member, exists := s.members[memberID]
	if !exists {
		return nil, ErrMemberNotFound
	}
	delete(s.members, memberID)

	room := s.rooms[member.RoomID]
	ids := s.order[member.RoomID]
	for i, id := range ids {
		if id == memberID {
			s.order[member.RoomID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	room.MemberCount--

	updated := *room
	return &updated, nil
}

func (s *MemoryStore) ListMembers(roomID string) ([]*models.Member, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if _, exists := s.rooms[roomID]; !exists {
		return nil, ErrRoomNotFound
	}

	members := make([]*models.Member, 0, len(s.order[roomID]))
	for _, id := range s.order[roomID] {
		copied := *s.members[id]
		members = append(members, &copied)
	}
	return members, nil
}

func (s *MemoryStore) SetPhase(roomID, phase string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return ErrRoomNotFound
	}
	room.Phase = phase
	return nil
}

func (s *MemoryStore) SetTheme(roomID, theme string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[roomID]
	if !exists {
		return ErrRoomNotFound
	}
	room.Theme = theme
	return nil
}

func (s *MemoryStore) CountRooms() (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.rooms), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
