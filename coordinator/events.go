// coordinator/events.go
package coordinator

import (
	"github.com/wfunc/roomserver/models"
)

// JoinRequest 入房请求
type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// ActionRequest 房间内玩家动作
type ActionRequest struct {
	RoomID string `json:"roomId"`
	Action string `json:"action"`
	Theme  string `json:"theme,omitempty"`
}

// FailurePayload 只回给请求方的失败答复
type FailurePayload struct {
	Reason string `json:"reason"`
}

// RosterPayload 携带完整花名册，客户端据此重建成员列表
type RosterPayload struct {
	Users []models.MemberInfo `json:"users"`
}

// StatePayload 阶段广播，choices 只在进入选题阶段时携带
type StatePayload struct {
	Phase   string   `json:"phase"`
	Choices []string `json:"choices,omitempty"`
	Theme   string   `json:"theme,omitempty"`
	Ready   []string `json:"ready,omitempty"`
}
