package room

import (
	"math/rand"
	"sync"
	"time"

	"github.com/brainduel/gameserver/models"
	"github.com/brainduel/gameserver/session"
)

// Status is the room's business lifecycle.
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

// ModeConfig is the per-mode timing and question count.
type ModeConfig struct {
	TimePerQuestion int
	Questions       int
}

// GameModes is the static mode table. Unknown modes fall back to normal.
var GameModes = map[string]ModeConfig{
	"normal":       {TimePerQuestion: 15, Questions: 10},
	"speed":        {TimePerQuestion: 5, Questions: 10},
	"sudden_death": {TimePerQuestion: 10, Questions: 20},
}

// ModeFor resolves a mode name, defaulting to normal.
func ModeFor(name string) (string, ModeConfig) {
	if cfg, ok := GameModes[name]; ok {
		return name, cfg
	}
	return "normal", GameModes["normal"]
}

// Room is one two-player game session. Game state (player fields,
// questions, status, rematch set) is guarded by a single mutex so all
// mutation within a room is serialized; seats use their own lock so the
// broadcaster can resolve occupants without contending with game logic.
type Room struct {
	Code            string
	Topic           string
	GameMode        string
	TimePerQuestion int
	QuestionCount   int

	Status          Status
	Questions       []models.Question
	ready           bool
	RematchRequests map[string]struct{}

	CreatedAt  time.Time
	LastActive time.Time

	host  *Player
	guest *Player

	broadcaster Broadcaster
	mu          sync.Mutex
	seatMutex   sync.RWMutex
}

func newRoom(code, topic, mode string, cfg ModeConfig, host *Player, broadcaster Broadcaster) *Room {
	now := time.Now()
	r := &Room{
		Code:            code,
		Topic:           topic,
		GameMode:        mode,
		TimePerQuestion: cfg.TimePerQuestion,
		QuestionCount:   cfg.Questions,
		Status:          StatusWaiting,
		RematchRequests: make(map[string]struct{}),
		CreatedAt:       now,
		LastActive:      now,
		host:            host,
		broadcaster:     broadcaster,
	}
	host.Session.RoomCode = code
	return r
}

// Lock serializes all game-state mutation for this room.
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the game-state lock.
func (r *Room) Unlock() { r.mu.Unlock() }

// Touch records activity for idle eviction. Callers hold the room lock.
func (r *Room) Touch() {
	r.LastActive = time.Now()
}

// IdleSince returns the last activity timestamp.
func (r *Room) IdleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.LastActive
}

func (r *Room) Host() *Player {
	r.seatMutex.RLock()
	defer r.seatMutex.RUnlock()
	return r.host
}

func (r *Room) Guest() *Player {
	r.seatMutex.RLock()
	defer r.seatMutex.RUnlock()
	return r.guest
}

// SeatGuest fills the guest seat. Returns false if already taken.
func (r *Room) SeatGuest(p *Player) bool {
	r.seatMutex.Lock()
	defer r.seatMutex.Unlock()
	if r.guest != nil {
		return false
	}
	r.guest = p
	p.Session.RoomCode = r.Code
	return true
}

// Players returns the current occupants, host first.
func (r *Room) Players() []*Player {
	r.seatMutex.RLock()
	defer r.seatMutex.RUnlock()
	players := make([]*Player, 0, 2)
	if r.host != nil {
		players = append(players, r.host)
	}
	if r.guest != nil {
		players = append(players, r.guest)
	}
	return players
}

// PlayerByID resolves an occupant by session id.
func (r *Room) PlayerByID(sessionID string) (*Player, bool) {
	for _, p := range r.Players() {
		if p.Session.ID == sessionID {
			return p, true
		}
	}
	return nil, false
}

// Opponent returns the other occupant, nil if alone.
func (r *Room) Opponent(p *Player) *Player {
	r.seatMutex.RLock()
	defer r.seatMutex.RUnlock()
	if p == r.host {
		return r.guest
	}
	return r.host
}

// Sessions returns occupant sessions for fan-out.
func (r *Room) Sessions() []*session.Session {
	players := r.Players()
	sessions := make([]*session.Session, 0, len(players))
	for _, p := range players {
		sessions = append(sessions, p.Session)
	}
	return sessions
}

// SetQuestions installs a freshly generated batch and marks the room
// answerable. Callers hold the room lock.
func (r *Room) SetQuestions(questions []models.Question) {
	r.Questions = questions
	r.ready = true
}

// Ready reports whether the question batch has landed. Submissions that
// arrive earlier are not answerable. Callers hold the room lock.
func (r *Room) Ready() bool {
	return r.ready
}

// ClearQuestions drops the old batch ahead of a rematch generation.
// Callers hold the room lock.
func (r *Room) ClearQuestions() {
	r.Questions = nil
	r.ready = false
}

// Broadcast sends an event to everyone in the room.
func (r *Room) Broadcast(event string, v interface{}) error {
	return r.broadcaster.BroadcastToRoom(r.Code, event, v)
}

// --- registry ---

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const codeLength = 4
const codeAttempts = 10

// Manager is the process-wide registry mapping codes to rooms.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

func generateCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(buf)
}

// CreateRoom allocates a code and registers a new waiting room with the
// given host. Codes are regenerated on collision a bounded number of
// times; an exhausted retry budget overwrites, which at this scale is an
// accepted trade.
func (m *Manager) CreateRoom(topic, mode string, host *Player, broadcaster Broadcaster) *Room {
	mode, cfg := ModeFor(mode)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := generateCode()
	for i := 0; i < codeAttempts; i++ {
		if _, taken := m.rooms[code]; !taken {
			break
		}
		code = generateCode()
	}

	r := newRoom(code, topic, mode, cfg, host, broadcaster)
	m.rooms[code] = r
	return r
}

// GetRoom resolves a room by code.
func (m *Manager) GetRoom(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, exists := m.rooms[code]
	return r, exists
}

// RemoveRoom drops a room from the registry.
func (m *Manager) RemoveRoom(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, code)
}

// Count returns the number of registered rooms.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// Codes lists all registered room codes.
func (m *Manager) Codes() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	codes := make([]string, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	return codes
}

// EvictIdle removes rooms with no activity for at least ttl and returns
// how many were dropped. Idle checks run without the registry lock held
// so they never contend with in-flight game traffic.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mutex.RLock()
	snapshot := make(map[string]*Room, len(m.rooms))
	for code, r := range m.rooms {
		snapshot[code] = r
	}
	m.mutex.RUnlock()

	var stale []string
	for code, r := range snapshot {
		if r.IdleSince().Before(cutoff) {
			stale = append(stale, code)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	evicted := 0
	for _, code := range stale {
		if _, exists := m.rooms[code]; exists {
			delete(m.rooms, code)
			evicted++
		}
	}
	return evicted
}
