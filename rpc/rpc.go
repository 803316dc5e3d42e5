package rpc

import (
	"fmt"
	"net"
	"net/rpc"

	"github.com/brainduel/gameserver/logger"
	"github.com/brainduel/gameserver/room"
	"github.com/brainduel/gameserver/session"
)

// Server manages the RPC listener for the ops surface.
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

// AdminService exposes operational stats over net/rpc. Methods follow
// the net/rpc signature rules: exported, args value, reply pointer,
// error return.
type AdminService struct {
	rooms    *room.Manager
	sessions *session.Manager
}

func NewAdminService(rooms *room.Manager, sessions *session.Manager) *AdminService {
	return &AdminService{rooms: rooms, sessions: sessions}
}

type StatsArgs struct{}

type StatsReply struct {
	Rooms    int
	Sessions int
	Codes    []string
}

func (a *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	reply.Rooms = a.rooms.Count()
	reply.Sessions = a.sessions.Count()
	reply.Codes = a.rooms.Codes()
	return nil
}

type RoomInfoArgs struct {
	Code string
}

type RoomInfoReply struct {
	Code     string
	Topic    string
	GameMode string
	Status   int
	Players  []RoomPlayerInfo
}

type RoomPlayerInfo struct {
	Name          string
	Score         int
	QuestionIndex int
	Eliminated    bool
}

func (a *AdminService) RoomInfo(args *RoomInfoArgs, reply *RoomInfoReply) error {
	r, exists := a.rooms.GetRoom(args.Code)
	if !exists {
		return fmt.Errorf("room %s not found", args.Code)
	}

	r.Lock()
	defer r.Unlock()

	reply.Code = r.Code
	reply.Topic = r.Topic
	reply.GameMode = r.GameMode
	reply.Status = int(r.Status)
	for _, p := range r.Players() {
		reply.Players = append(reply.Players, RoomPlayerInfo{
			Name:          p.Name,
			Score:         p.Score,
			QuestionIndex: p.QuestionIndex,
			Eliminated:    p.Eliminated(),
		})
	}
	return nil
}
