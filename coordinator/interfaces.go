package coordinator

import (
	"github.com/wfunc/roomserver/session"
)

// Dispatcher defines the interface for delivering outcomes to connections.
// This is defined here to break the import cycle between coordinator and broadcast.
type Dispatcher interface {
	JoinGroup(roomID string, sess *session.Session)
	LeaveGroup(roomID string, sess *session.Session)
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	SendTo(sess *session.Session, msgID uint16, data []byte) error
}
