package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brainduel/gameserver/broadcast"
	"github.com/brainduel/gameserver/config"
	"github.com/brainduel/gameserver/game"
	"github.com/brainduel/gameserver/logger"
	"github.com/brainduel/gameserver/models"
	"github.com/brainduel/gameserver/monitor"
	"github.com/brainduel/gameserver/network"
	"github.com/brainduel/gameserver/room"
	adminrpc "github.com/brainduel/gameserver/rpc"
	"github.com/brainduel/gameserver/session"
	"github.com/brainduel/gameserver/timer"
)

const evictionSweepInterval = time.Minute

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	engine         *game.Engine
	broadcaster    broadcast.Broadcaster
	mon            *monitor.Monitor
	timers         *timer.Manager
	rpcServer      *adminrpc.Server
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, source game.QuestionSource) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		mon:            monitor.NewMonitor("brainduel"),
		timers:         timer.NewManager(),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager)
	s.engine = game.NewEngine(s.roomManager, source, s.broadcaster, cfg.Game.FreezeDuration())
	s.engine.OnGenerationFallback = s.mon.IncGenerationFallbacks

	rpcServer, err := adminrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(adminrpc.NewAdminService(s.roomManager, s.sessionManager))

	// Idle rooms leak forever otherwise; sweep them on a schedule.
	ttl := cfg.Game.RoomIdleTTL()
	s.timers.Schedule(evictionSweepInterval, evictionSweepInterval, func() {
		if evicted := s.roomManager.EvictIdle(ttl); evicted > 0 {
			logger.Log.Infof("Evicted %d idle room(s)", evicted)
		}
		s.mon.SetActiveRooms(s.roomManager.Count())
	})

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.mon.StartServer(s.cfg.Server.MetricsAddress)

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
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
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.mon.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			ev, err := wsConn.ReadEvent()
			if err != nil {
				return
			}
			s.handleEvent(sess, ev)
		}
	}
}

func (s *GameServer) handleEvent(sess *session.Session, ev *network.Event) {
	start := time.Now()
	s.mon.IncEventsReceived()

	switch ev.Name {
	case network.EventCreateRoom:
		s.handleCreateRoom(sess, ev)
	case network.EventJoinRoom:
		s.handleJoinRoom(sess, ev)
	case network.EventUsePowerUp:
		s.handleUsePowerUp(sess, ev)
	case network.EventSubmitAnswer:
		s.handleSubmitAnswer(sess, ev)
	case network.EventSendReaction:
		s.handleSendReaction(sess, ev)
	case network.EventSendChat:
		s.handleSendChat(sess, ev)
	case network.EventRequestRematch:
		s.handleRequestRematch(sess, ev)
	default:
		logger.Log.Infof("Unknown event %q from session %s", ev.Name, sess.GetID())
	}

	s.mon.ObserveEventLatency(time.Since(start))
}

// decode unmarshals an event payload, logging and rejecting junk input.
func decode(ev *network.Event, v interface{}) bool {
	if err := json.Unmarshal(ev.Data, v); err != nil {
		logger.Log.Warnf("Malformed %s payload: %v", ev.Name, err)
		return false
	}
	return true
}

func (s *GameServer) handleCreateRoom(sess *session.Session, ev *network.Event) {
	var req models.CreateRoomRequest
	if !decode(ev, &req) {
		return
	}
	s.engine.CreateRoom(sess, req)
	s.mon.SetActiveRooms(s.roomManager.Count())
}

func (s *GameServer) handleJoinRoom(sess *session.Session, ev *network.Event) {
	var req models.JoinRoomRequest
	if !decode(ev, &req) {
		return
	}
	if err := s.engine.JoinRoom(context.Background(), sess, req); err != nil {
		sess.Send(network.EventError, "Room not found or full")
		return
	}
	s.mon.IncGamesStarted()
}

func (s *GameServer) handleUsePowerUp(sess *session.Session, ev *network.Event) {
	var req models.PowerUpRequest
	if !decode(ev, &req) {
		return
	}
	s.engine.UsePowerUp(sess, req)
}

func (s *GameServer) handleSubmitAnswer(sess *session.Session, ev *network.Event) {
	var req models.SubmitAnswerRequest
	if !decode(ev, &req) {
		return
	}
	s.engine.SubmitAnswer(sess, req)
}

func (s *GameServer) handleSendReaction(sess *session.Session, ev *network.Event) {
	var req models.ReactionRequest
	if !decode(ev, &req) {
		return
	}
	s.engine.SendReaction(sess, req)
}

func (s *GameServer) handleSendChat(sess *session.Session, ev *network.Event) {
	var req models.ChatRequest
	if !decode(ev, &req) {
		return
	}
	s.engine.SendChat(sess, req)
}

func (s *GameServer) handleRequestRematch(sess *session.Session, ev *network.Event) {
	var req models.RematchRequest
	if !decode(ev, &req) {
		return
	}
	s.engine.RequestRematch(context.Background(), sess, req)
}
