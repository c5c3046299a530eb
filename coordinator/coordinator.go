// coordinator/coordinator.go
package coordinator

import (
	"encoding/json"
	"sync"

	"github.com/wfunc/roomserver/catalog"
	"github.com/wfunc/roomserver/logger"
	"github.com/wfunc/roomserver/models"
	"github.com/wfunc/roomserver/network"
	"github.com/wfunc/roomserver/phase"
	"github.com/wfunc/roomserver/registry"
	"github.com/wfunc/roomserver/session"
)

// roomRuntime 是单个房间的运行期状态：一把串行化该房间所有变更的
// 锁，和不落库的就绪信号集合。房间存续期间 runtime 不回收，
// 否则等在旧锁上的请求会和拿到新锁的请求并行进入临界区。
type roomRuntime struct {
	mu    sync.Mutex
	ready map[string]bool
}

// Coordinator 把入房/退房/断开事件变成经过校验的注册表变更和
// 对应的广播。同一房间的变更在房间锁下串行执行，不同房间互不阻塞。
type Coordinator struct {
	registry *registry.Registry
	machine  *phase.Machine
	catalog  *catalog.Catalog
	dispatch Dispatcher

	runtimes map[string]*roomRuntime
	mutex    sync.Mutex
}

func New(reg *registry.Registry, cat *catalog.Catalog, dispatch Dispatcher) *Coordinator {
	return &Coordinator{
		registry: reg,
		machine:  phase.NewMachine(),
		catalog:  cat,
		dispatch: dispatch,
		runtimes: make(map[string]*roomRuntime),
	}
}

func (c *Coordinator) runtime(roomID string) *roomRuntime {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	rt, exists := c.runtimes[roomID]
	if !exists {
		rt = &roomRuntime{ready: make(map[string]bool)}
		c.runtimes[roomID] = rt
	}
	return rt
}

// Join 处理一条入房请求。格式非法的请求只答复请求方并断开连接，
// 不会留下任何注册表痕迹；房间不存在或已满只答复，不断开。
func (c *Coordinator) Join(sess *session.Session, data []byte) {
	var req JoinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.rejectJoin(sess, "malformed join request: "+err.Error(), true)
		return
	}
	if req.RoomID == "" {
		c.rejectJoin(sess, "roomId is required", true)
		return
	}
	if req.Username == "" {
		c.rejectJoin(sess, "username is required", true)
		return
	}
	if _, _, bound := sess.Binding(); bound {
		c.rejectJoin(sess, "connection already joined a room", false)
		return
	}

	rt := c.runtime(req.RoomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	member, room, err := c.registry.CreateMember(req.RoomID, req.Username)
	switch err {
	case nil:
	case registry.ErrRoomNotFound:
		c.rejectJoin(sess, "No room with that id.", false)
		return
	case registry.ErrRoomFull:
		c.rejectJoin(sess, "Room already full.", false)
		return
	default:
		logger.Log.Errorf("Join into room %s failed: %v", req.RoomID, err)
		c.rejectJoin(sess, "internal error", false)
		return
	}

	// 绑定只在成员落库之后建立
	sess.Bind(member.ID, room.ID)
	c.dispatch.JoinGroup(room.ID, sess)

	logger.Log.Infof("Member %s (%s) joined room %s (%d/%d)",
		member.ID, member.Name, room.ID, room.MemberCount, room.MaxPlayers)

	roster, err := c.registry.ListMembers(room.ID)
	if err != nil {
		logger.Log.Errorf("Listing members of room %s failed: %v", room.ID, err)
		return
	}
	c.broadcast(room.ID, network.MsgTypePlayerJoined, RosterPayload{Users: models.Roster(roster)})

	c.recomputePhase(rt, room)
}

// Leave 处理显式退房和传输层断开，两者走同一条路径。
// 未完成入房的连接在这里是空操作；绑定一次性清除保证成员
// 不会被移除两次、player_left 不会广播两次。
func (c *Coordinator) Leave(sess *session.Session) {
	memberID, roomID, ok := sess.Unbind()
	if !ok {
		return
	}

	rt := c.runtime(roomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, members, err := c.registry.RemoveMember(memberID)
	if err == registry.ErrMemberNotFound {
		// 重复的断开信号
		return
	}
	if err != nil {
		logger.Log.Errorf("Removing member %s failed: %v", memberID, err)
		return
	}

	c.dispatch.LeaveGroup(roomID, sess)
	delete(rt.ready, memberID)

	logger.Log.Infof("Member %s left room %s (%d/%d)",
		memberID, roomID, room.MemberCount, room.MaxPlayers)

	c.broadcast(roomID, network.MsgTypePlayerLeft, RosterPayload{Users: models.Roster(members)})

	c.recomputePhase(rt, room)
}

// HandleAction 处理已入房成员的动作。非法动作只答复发送者，
// 不改状态也不广播。
func (c *Coordinator) HandleAction(sess *session.Session, data []byte) {
	var req ActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.rejectAction(sess, "malformed action request: "+err.Error())
		return
	}
	if req.Action == "" {
		c.rejectAction(sess, "action is required")
		return
	}

	memberID, roomID, bound := sess.Binding()
	if !bound || (req.RoomID != "" && req.RoomID != roomID) {
		c.rejectAction(sess, "not a member of that room")
		return
	}

	rt := c.runtime(roomID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, err := c.registry.Find(roomID)
	if err != nil {
		c.rejectAction(sess, "No room with that id.")
		return
	}

	current := phase.Phase(room.Phase)
	next, err := c.machine.Apply(current, req.Action)
	if err != nil {
		c.rejectAction(sess, "invalid action "+req.Action+" in phase "+room.Phase)
		return
	}

	switch req.Action {
	case phase.ActionSelectTheme:
		c.applySelectTheme(sess, room, req.Theme, next)
	case phase.ActionContentReady:
		c.applyContentReady(rt, room, memberID, next)
	}
}

func (c *Coordinator) applySelectTheme(sess *session.Session, room *models.Room, theme string, next phase.Phase) {
	if !c.catalog.Contains(theme) {
		c.rejectAction(sess, "unknown theme "+theme)
		return
	}
	if err := c.registry.SetTheme(room.ID, theme); err != nil {
		logger.Log.Errorf("Setting theme for room %s failed: %v", room.ID, err)
		return
	}
	if err := c.registry.SetPhase(room.ID, next); err != nil {
		logger.Log.Errorf("Setting phase for room %s failed: %v", room.ID, err)
		return
	}

	logger.Log.Infof("Room %s chose theme %q, entering %s", room.ID, theme, next)
	c.broadcast(room.ID, network.MsgTypeRoomState, StatePayload{Phase: next.String(), Theme: theme})
}

func (c *Coordinator) applyContentReady(rt *roomRuntime, room *models.Room, memberID string, next phase.Phase) {
	rt.ready[memberID] = true

	if len(rt.ready) < room.MemberCount {
		// 记录进度，阶段不变
		c.broadcast(room.ID, network.MsgTypeRoomState, StatePayload{
			Phase: room.Phase,
			Ready: readyList(rt.ready),
		})
		return
	}

	if err := c.registry.SetPhase(room.ID, next); err != nil {
		logger.Log.Errorf("Setting phase for room %s failed: %v", room.ID, err)
		return
	}
	rt.ready = make(map[string]bool)

	logger.Log.Infof("Room %s is fully ready, entering %s", room.ID, next)
	c.broadcast(room.ID, network.MsgTypeRoomState, StatePayload{Phase: next.String(), Theme: room.Theme})
}

// recomputePhase 在成员变动后重新推导容量驱动的阶段，必要时持久化
// 并广播。人数跌破容量会把房间重置回等待，并清掉已选主题和就绪信号。
func (c *Coordinator) recomputePhase(rt *roomRuntime, room *models.Room) {
	current := phase.Phase(room.Phase)
	next := phase.Recompute(current, room.MemberCount, room.MaxPlayers)
	if next == current {
		return
	}

	if err := c.registry.SetPhase(room.ID, next); err != nil {
		logger.Log.Errorf("Setting phase for room %s failed: %v", room.ID, err)
		return
	}

	payload := StatePayload{Phase: next.String()}
	switch next {
	case phase.ChooseTheme:
		payload.Choices = c.catalog.Themes()
	case phase.AwaitingPlayers:
		// 房间退回等待，之前的主题和就绪信号作废
		rt.ready = make(map[string]bool)
		if room.Theme != "" {
			if err := c.registry.SetTheme(room.ID, ""); err != nil {
				logger.Log.Errorf("Clearing theme for room %s failed: %v", room.ID, err)
			}
		}
	}

	logger.Log.Infof("Room %s phase %s -> %s (%d/%d)",
		room.ID, current, next, room.MemberCount, room.MaxPlayers)
	c.broadcast(room.ID, network.MsgTypeRoomState, payload)
}

func (c *Coordinator) rejectJoin(sess *session.Session, reason string, terminate bool) {
	c.reply(sess, network.MsgTypeJoinFailed, reason)
	if terminate {
		sess.Close()
	}
}

func (c *Coordinator) rejectAction(sess *session.Session, reason string) {
	c.reply(sess, network.MsgTypeActionFailed, reason)
}

func (c *Coordinator) reply(sess *session.Session, msgID uint16, reason string) {
	data, _ := json.Marshal(FailurePayload{Reason: reason})
	if err := c.dispatch.SendTo(sess, msgID, data); err != nil {
		logger.Log.Warnf("Reply to session %s failed: %v", sess.GetID(), err)
	}
}

func (c *Coordinator) broadcast(roomID string, msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Marshalling broadcast for room %s failed: %v", roomID, err)
		return
	}
	if err := c.dispatch.BroadcastToRoom(roomID, msgID, data); err != nil {
		logger.Log.Warnf("Broadcast to room %s failed: %v", roomID, err)
	}
}

func readyList(ready map[string]bool) []string {
	ids := make([]string, 0, len(ready))
	for id := range ready {
		ids = append(ids, id)
	}
	return ids
}
