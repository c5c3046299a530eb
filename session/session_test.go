package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/roomserver/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestSession_BindAndBinding(t *testing.T) {
	sess := NewSession("session1", &MockConnection{})

	if _, _, ok := sess.Binding(); ok {
		t.Fatal("A fresh session must not be bound")
	}

	sess.Bind("member1", "room1")

	memberID, roomID, ok := sess.Binding()
	if !ok {
		t.Fatal("Binding should be set after Bind")
	}
	if memberID != "member1" || roomID != "room1" {
		t.Errorf("Unexpected binding: %s %s", memberID, roomID)
	}
}

func TestSession_UnbindOnlyOnce(t *testing.T) {
	sess := NewSession("session1", &MockConnection{})
	sess.Bind("member1", "room1")

	memberID, roomID, ok := sess.Unbind()
	if !ok || memberID != "member1" || roomID != "room1" {
		t.Fatalf("First Unbind should return the binding, got %s %s %v", memberID, roomID, ok)
	}

	// 第二次取不到绑定，retrying leave/disconnect 因此是空操作
	if _, _, ok := sess.Unbind(); ok {
		t.Error("Second Unbind must report no binding")
	}
	if _, _, ok := sess.Binding(); ok {
		t.Error("Binding must be cleared after Unbind")
	}
}

func TestSession_UnbindNeverBound(t *testing.T) {
	sess := NewSession("session1", &MockConnection{})

	if _, _, ok := sess.Unbind(); ok {
		t.Error("Unbind on a session that never joined must report no binding")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Get
	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	// Test Remove
	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_IdleBefore(t *testing.T) {
	manager := NewManager()

	stale := NewSession("stale", &MockConnection{})
	stale.LastActive = time.Now().Add(-10 * time.Minute)
	fresh := NewSession("fresh", &MockConnection{})

	manager.Add(stale)
	manager.Add(fresh)

	idle := manager.IdleBefore(time.Now().Add(-5 * time.Minute))
	if len(idle) != 1 || idle[0].GetID() != "stale" {
		t.Errorf("Expected only the stale session, got %d", len(idle))
	}

	stale.Touch()
	idle = manager.IdleBefore(time.Now().Add(-5 * time.Minute))
	if len(idle) != 0 {
		t.Errorf("Expected no idle sessions after Touch, got %d", len(idle))
	}
}
