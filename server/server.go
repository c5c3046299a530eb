package server

import (
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/roomserver/coordinator"
	"github.com/wfunc/roomserver/logger"
	"github.com/wfunc/roomserver/monitor"
	"github.com/wfunc/roomserver/network"
	"github.com/wfunc/roomserver/registry"
	roomrpc "github.com/wfunc/roomserver/rpc"
	"github.com/wfunc/roomserver/services"
	"github.com/wfunc/roomserver/session"
	"github.com/wfunc/roomserver/timer"
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	coordinator    *coordinator.Coordinator
	registry       *registry.Registry
	rpcServer      *roomrpc.Server
	monitor        *monitor.Monitor
	timers         *timer.Manager
	idleTimeout    time.Duration
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr string, coord *coordinator.Coordinator, sessions *session.Manager,
	reg *registry.Registry, roomService *services.RoomService, mon *monitor.Monitor, idleTimeout time.Duration) *GameServer {

	s := &GameServer{
		addr:           addr,
		sessionManager: sessions,
		coordinator:    coord,
		registry:       reg,
		monitor:        mon,
		timers:         timer.NewManager(),
		idleTimeout:    idleTimeout,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化RPC服务器
	rpcServer, err := roomrpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	adminService := roomrpc.NewAdminService(roomService)
	rpc.Register(adminService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	// 空闲连接清扫：关掉超时连接，断开清理走正常的退房路径
	s.timers.AddTimer(30*time.Second, 30*time.Second, s.sweepIdleSessions)

	// 房间数指标刷新
	s.timers.AddTimer(10*time.Second, 10*time.Second, func() {
		count, err := s.registry.CountRooms()
		if err != nil {
			logger.Log.Warnf("Counting rooms failed: %v", err)
			return
		}
		s.monitor.SetActiveRooms(count)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Room server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) sweepIdleSessions() {
	cutoff := time.Now().Add(-s.idleTimeout)
	for _, sess := range s.sessionManager.IdleBefore(cutoff) {
		logger.Log.Infof("Closing idle session %s", sess.GetID())
		sess.Close()
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		// 断开即退房，没入过房的连接在协调器里是空操作
		s.coordinator.Leave(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.monitor.IncMessagesReceived()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeJoinRequest:
		s.monitor.IncJoins()
		s.coordinator.Join(sess, packet.Data)
	case network.MsgTypeLeaveRoom:
		s.coordinator.Leave(sess)
	case network.MsgTypePlayerAction:
		s.coordinator.HandleAction(sess, packet.Data)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}

	s.monitor.ObserveMessageLatency(time.Since(start))
}
