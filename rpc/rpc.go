package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/roomserver/logger"
	"github.com/wfunc/roomserver/models"
	"github.com/wfunc/roomserver/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes room provisioning and stats over net/rpc.
type AdminService struct {
	roomService *services.RoomService
}

// NewAdminService creates a new AdminService.
func NewAdminService(rs *services.RoomService) *AdminService {
	return &AdminService{roomService: rs}
}

type CreateRoomArgs struct {
	Name       string
	MaxPlayers int
}

type CreateRoomReply struct {
	RoomID string
}

func (as *AdminService) CreateRoom(args *CreateRoomArgs, reply *CreateRoomReply) error {
	room, err := as.roomService.CreateRoom(args.Name, args.MaxPlayers)
	if err != nil {
		return err
	}
	reply.RoomID = room.ID
	return nil
}

type RoomStatsArgs struct {
	RoomID string
}

type RoomStatsReply struct {
	Stats models.RoomStats
}

func (as *AdminService) RoomStats(args *RoomStatsArgs, reply *RoomStatsReply) error {
	stats, err := as.roomService.RoomStats(args.RoomID)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}
