// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormRoom 房间模型
type GormRoom struct {
	gorm.Model
	RoomID      string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	MaxPlayers  int    `gorm:"not null"`
	MemberCount int    `gorm:"not null;default:0"`
	Phase       string `gorm:"not null"`
	Theme       string
}

// GormMember 成员模型，花名册按主键顺序即加入顺序返回
type GormMember struct {
	gorm.Model
	MemberID string `gorm:"uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	RoomID   string `gorm:"index;not null"`
}

// RoomStats 房间统计信息
type RoomStats struct {
	RoomID      string `json:"room_id"`
	Name        string `json:"name"`
	MaxPlayers  int    `json:"max_players"`
	MemberCount int    `json:"member_count"`
	Phase       string `json:"phase"`
}
