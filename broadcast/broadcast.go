// broadcast/broadcast.go
package broadcast

import (
	"sync"

	"github.com/wfunc/roomserver/logger"
	"github.com/wfunc/roomserver/session"
)

// RoomBroadcaster 维护房间广播组并向组内所有连接投递事件。
// 它只消费协调器交来的既成事实，从不改动注册表状态。
type RoomBroadcaster struct {
	// roomID -> 按加入顺序排列的会话
	groups map[string][]*session.Session
	mutex  sync.RWMutex
}

func NewRoomBroadcaster() *RoomBroadcaster {
	return &RoomBroadcaster{
		groups: make(map[string][]*session.Session),
	}
}

// JoinGroup 把会话加入房间广播组
func (b *RoomBroadcaster) JoinGroup(roomID string, sess *session.Session) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.groups[roomID] = append(b.groups[roomID], sess)
}

// LeaveGroup 把会话移出房间广播组
func (b *RoomBroadcaster) LeaveGroup(roomID string, sess *session.Session) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	group := b.groups[roomID]
	for i, s := range group {
		if s.GetID() == sess.GetID() {
			b.groups[roomID] = append(group[:i], group[i+1:]...)
			break
		}
	}
	if len(b.groups[roomID]) == 0 {
		delete(b.groups, roomID)
	}
}

// BroadcastToRoom 向房间内所有当前成员投递一条事件
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	b.mutex.RLock()
	group := make([]*session.Session, len(b.groups[roomID]))
	copy(group, b.groups[roomID])
	b.mutex.RUnlock()

	for _, s := range group {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败交给该连接自己的读循环去清理
			logger.Log.Warnf("Broadcast to session %s in room %s failed: %v", s.GetID(), roomID, err)
			continue
		}
	}
	return nil
}

// SendTo 只回给触发请求的连接，用于失败答复
func (b *RoomBroadcaster) SendTo(sess *session.Session, msgID uint16, data []byte) error {
	return sess.Send(msgID, data)
}

// GroupSize 返回房间广播组当前人数
func (b *RoomBroadcaster) GroupSize(roomID string) int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.groups[roomID])
}
