// models/models.go
package models

import (
	"time"
)

// Room 房间数据模型
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MaxPlayers  int       `json:"max_players"`
	MemberCount int       `json:"member_count"`
	Phase       string    `json:"phase"`
	Theme       string    `json:"theme,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Member 房间成员模型
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	RoomID   string    `json:"room_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// MemberInfo 成员信息（用于花名册广播）
type MemberInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Roster 按加入顺序构建花名册
func Roster(members []*Member) []MemberInfo {
	roster := make([]MemberInfo, 0, len(members))
	for _, m := range members {
		roster = append(roster, MemberInfo{ID: m.ID, Name: m.Name})
	}
	return roster
}
