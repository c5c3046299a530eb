// registry/registry.go
package registry

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/roomserver/models"
	"github.com/wfunc/roomserver/phase"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrMemberNotFound = errors.New("member not found")
	ErrRoomExists     = errors.New("room already exists")
)

// Store 是房间数据的后端存储契约。InsertMember 必须把容量检查和
// 写入作为单个原子步骤执行，RemoveMember 必须把删除和计数递减作为
// 单个原子步骤执行，否则并发入房会突破容量上限。
type Store interface {
	FindRoom(roomID string) (*models.Room, error)
	CreateRoom(room *models.Room) error
	InsertMember(member *models.Member) (*models.Room, error)
	RemoveMember(memberID string) (*models.Room, error)
	ListMembers(roomID string) ([]*models.Member, error)
	SetPhase(roomID, phase string) error
	SetTheme(roomID, theme string) error
	CountRooms() (int, error)
	Close() error
}

// Registry 是房间与成员状态的唯一写入口，后端存储可替换
type Registry struct {
	store Store
}

func New(store Store) *Registry {
	return &Registry{store: store}
}

// Find 查找房间
func (r *Registry) Find(roomID string) (*models.Room, error) {
	return r.store.FindRoom(roomID)
}

// CreateRoom 创建一个空房间，初始阶段为等待玩家
func (r *Registry) CreateRoom(roomID, name string, maxPlayers int) (*models.Room, error) {
	room := &models.Room{
		ID:         roomID,
		Name:       name,
		MaxPlayers: maxPlayers,
		Phase:      phase.AwaitingPlayers.String(),
		CreatedAt:  time.Now(),
	}
	if err := r.store.CreateRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// CreateMember 原子地向房间添加成员。房间不存在返回 ErrRoomNotFound，
// 房间已满返回 ErrRoomFull，两个并发请求抢最后一个空位时只有一个成功。
func (r *Registry) CreateMember(roomID, name string) (*models.Member, *models.Room, error) {
	member := &models.Member{
		ID:       uuid.New().String(),
		Name:     name,
		RoomID:   roomID,
		JoinedAt: time.Now(),
	}
	room, err := r.store.InsertMember(member)
	if err != nil {
		return nil, nil, err
	}
	return member, room, nil
}

// RemoveMember 原子地移除成员并递减所属房间的计数，返回更新后的
// 房间和当前花名册。成员不存在返回 ErrMemberNotFound。
func (r *Registry) RemoveMember(memberID string) (*models.Room, []*models.Member, error) {
	room, err := r.store.RemoveMember(memberID)
	if err != nil {
		return nil, nil, err
	}
	members, err := r.store.ListMembers(room.ID)
	if err != nil {
		return nil, nil, err
	}
	return room, members, nil
}

// ListMembers 按加入顺序返回房间成员
func (r *Registry) ListMembers(roomID string) ([]*models.Member, error) {
	return r.store.ListMembers(roomID)
}

// SetPhase 持久化房间阶段
func (r *Registry) SetPhase(roomID string, p phase.Phase) error {
	return r.store.SetPhase(roomID, p.String())
}

// SetTheme 持久化房间选定的主题
func (r *Registry) SetTheme(roomID, theme string) error {
	return r.store.SetTheme(roomID, theme)
}

// CountRooms 返回房间总数，用于指标上报
func (r *Registry) CountRooms() (int, error) {
	return r.store.CountRooms()
}

func (r *Registry) Close() error {
	return r.store.Close()
}
