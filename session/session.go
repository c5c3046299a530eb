// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/roomserver/network"
)

// Session 表示一条活跃连接。MemberID/RoomID 是连接与成员的绑定，
// 只在成功入房后写入，退房或断开时一次性清除。
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	LastActive time.Time
	memberID   string
	roomID     string
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Bind 记录连接到成员的绑定，仅在成员已落库后调用
func (s *Session) Bind(memberID, roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.memberID = memberID
	s.roomID = roomID
}

// Unbind 原子地取出并清除绑定。重复调用只有第一次返回 true，
// 这保证 leave 与断开竞争时成员只会被移除一次。
func (s *Session) Unbind() (memberID, roomID string, ok bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.memberID == "" {
		return "", "", false
	}
	memberID, roomID = s.memberID, s.roomID
	s.memberID, s.roomID = "", ""
	return memberID, roomID, true
}

// Binding 返回当前绑定，不清除
func (s *Session) Binding() (memberID, roomID string, ok bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.memberID == "" {
		return "", "", false
	}
	return s.memberID, s.roomID, true
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) IdleSince() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.LastActive
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// IdleBefore 返回在 cutoff 之前就没有活动的会话
func (m *Manager) IdleBefore(cutoff time.Time) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.IdleSince().Before(cutoff) {
			result = append(result, session)
		}
	}
	return result
}
