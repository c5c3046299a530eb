// services/room_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wfunc/roomserver/models"
	"github.com/wfunc/roomserver/persistence"
	"github.com/wfunc/roomserver/registry"
)

// RoomService 负责房间的开设和统计查询。统计在持久化存储可用时
// 走 gorm 事务，保证房间行和成员计数来自同一快照。
type RoomService struct {
	registry        *registry.Registry
	store           *persistence.GormStore // 运行在内存存储上时为 nil
	defaultCapacity int
}

func NewRoomService(reg *registry.Registry, store *persistence.GormStore, defaultCapacity int) *RoomService {
	return &RoomService{
		registry:        reg,
		store:           store,
		defaultCapacity: defaultCapacity,
	}
}

// CreateRoom 开设一个新房间。maxPlayers 为 0 时使用配置的默认容量。
func (s *RoomService) CreateRoom(name string, maxPlayers int) (*models.Room, error) {
	if maxPlayers <= 0 {
		maxPlayers = s.defaultCapacity
	}
	roomID := uuid.New().String()

	room, err := s.registry.CreateRoom(roomID, name, maxPlayers)
	if err != nil {
		return nil, fmt.Errorf("create room %q: %w", name, err)
	}
	return room, nil
}

// CreateRoomWithID 用指定ID开设房间，用于配置里的预置房间
func (s *RoomService) CreateRoomWithID(roomID, name string, maxPlayers int) (*models.Room, error) {
	if maxPlayers <= 0 {
		maxPlayers = s.defaultCapacity
	}
	room, err := s.registry.CreateRoom(roomID, name, maxPlayers)
	if err != nil {
		return nil, fmt.Errorf("create room %q: %w", roomID, err)
	}
	return room, nil
}

// RoomStats 返回房间当前的统计信息
func (s *RoomService) RoomStats(roomID string) (*models.RoomStats, error) {
	if s.store == nil {
		return s.statsFromRegistry(roomID)
	}

	var stats models.RoomStats
	err := s.store.DB().Transaction(func(tx *gorm.DB) error {
		var row models.GormRoom
		if err := tx.Where("room_id = ?", roomID).First(&row).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.GormMember{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
			return err
		}

		stats = models.RoomStats{
			RoomID:      row.RoomID,
			Name:        row.Name,
			MaxPlayers:  row.MaxPlayers,
			MemberCount: int(count),
			Phase:       row.Phase,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *RoomService) statsFromRegistry(roomID string) (*models.RoomStats, error) {
	room, err := s.registry.Find(roomID)
	if err != nil {
		return nil, err
	}
	return &models.RoomStats{
		RoomID:      room.ID,
		Name:        room.Name,
		MaxPlayers:  room.MaxPlayers,
		MemberCount: room.MemberCount,
		Phase:       room.Phase,
	}, nil
}
