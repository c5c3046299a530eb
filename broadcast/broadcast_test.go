package broadcast

import (
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/roomserver/logger"
	"github.com/wfunc/roomserver/network"
	"github.com/wfunc/roomserver/session"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockConnection records every packet sent through it.
type MockConnection struct {
	mutex sync.Mutex
	sent  []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func (m *MockConnection) sentCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sent)
}

func newTestSession(id string) (*session.Session, *MockConnection) {
	conn := &MockConnection{}
	return session.NewSession(id, conn), conn
}

func TestBroadcastToRoom_DeliversToGroupOnly(t *testing.T) {
	b := NewRoomBroadcaster()

	s1, c1 := newTestSession("s1")
	s2, c2 := newTestSession("s2")
	outsider, c3 := newTestSession("s3")

	b.JoinGroup("room1", s1)
	b.JoinGroup("room1", s2)
	b.JoinGroup("room2", outsider)

	if err := b.BroadcastToRoom("room1", network.MsgTypePlayerJoined, []byte(`{}`)); err != nil {
		t.Fatalf("BroadcastToRoom failed: %v", err)
	}

	if c1.sentCount() != 1 || c2.sentCount() != 1 {
		t.Errorf("Expected both room members to receive the event, got %d and %d", c1.sentCount(), c2.sentCount())
	}
	if c3.sentCount() != 0 {
		t.Error("Members of other rooms must not receive the event")
	}
}

func TestLeaveGroup_StopsDelivery(t *testing.T) {
	b := NewRoomBroadcaster()

	s1, c1 := newTestSession("s1")
	s2, c2 := newTestSession("s2")
	b.JoinGroup("room1", s1)
	b.JoinGroup("room1", s2)

	b.LeaveGroup("room1", s1)
	b.BroadcastToRoom("room1", network.MsgTypePlayerLeft, []byte(`{}`))

	if c1.sentCount() != 0 {
		t.Error("A session that left the group must not receive broadcasts")
	}
	if c2.sentCount() != 1 {
		t.Errorf("Expected the remaining member to receive the event, got %d", c2.sentCount())
	}

	if b.GroupSize("room1") != 1 {
		t.Errorf("Expected group size 1, got %d", b.GroupSize("room1"))
	}
}

func TestSendTo_RequesterOnly(t *testing.T) {
	b := NewRoomBroadcaster()

	s1, c1 := newTestSession("s1")
	s2, c2 := newTestSession("s2")
	b.JoinGroup("room1", s1)
	b.JoinGroup("room1", s2)

	if err := b.SendTo(s1, network.MsgTypeJoinFailed, []byte(`{"reason":"x"}`)); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}

	if c1.sentCount() != 1 {
		t.Errorf("Expected the requester to receive the reply, got %d", c1.sentCount())
	}
	if c2.sentCount() != 0 {
		t.Error("Failure replies must never be broadcast")
	}
}

func TestGroup_EmptyGroupRemoved(t *testing.T) {
	b := NewRoomBroadcaster()

	s1, _ := newTestSession("s1")
	b.JoinGroup("room1", s1)
	b.LeaveGroup("room1", s1)

	if b.GroupSize("room1") != 0 {
		t.Errorf("Expected empty group, got %d", b.GroupSize("room1"))
	}
	// 对空组广播是无害的空操作
	if err := b.BroadcastToRoom("room1", network.MsgTypeRoomState, []byte(`{}`)); err != nil {
		t.Fatalf("Broadcast to an empty group should not fail: %v", err)
	}
}
