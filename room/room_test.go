package room

import (
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/brainduel/gameserver/models"
	"github.com/brainduel/gameserver/network"
	"github.com/brainduel/gameserver/session"
)

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct{}

func (m *MockBroadcaster) BroadcastToRoom(code string, event string, v interface{}) error {
	return nil
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(event string, v interface{}) error { return nil }
func (m *MockConnection) ReadEvent() (*network.Event, error)     { return nil, nil }
func (m *MockConnection) Close() error                           { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                   { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)    {}

func newTestPlayer(id, name string) *Player {
	return NewPlayer(session.NewSession(id, &MockConnection{}), name, "😀")
}

var codePattern = regexp.MustCompile(`^[0-9A-Z]{4}$`)

func TestManagerCreateAndGetRoom(t *testing.T) {
	manager := NewRoomManager()

	r := manager.CreateRoom("History", "normal", newTestPlayer("p1", "Alice"), &MockBroadcaster{})
	if r == nil {
		t.Fatal("CreateRoom should not return nil")
	}
	if !codePattern.MatchString(r.Code) {
		t.Errorf("room code must be 4 uppercase alphanumerics, got %q", r.Code)
	}
	if r.Status != StatusWaiting {
		t.Errorf("new rooms start waiting, got %v", r.Status)
	}
	if r.Host() == nil || r.Host().Name != "Alice" {
		t.Error("host seat should hold the creating player")
	}
	if r.Host().Session.RoomCode != r.Code {
		t.Error("host session should be tagged with the room code")
	}

	retrieved, exists := manager.GetRoom(r.Code)
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrieved != r {
		t.Error("GetRoom should return the same room instance")
	}
	if manager.Count() != 1 {
		t.Errorf("expected 1 room, got %d", manager.Count())
	}
}

func TestModeTable(t *testing.T) {
	cases := []struct {
		requested string
		mode      string
		timePerQ  int
		questions int
	}{
		{"normal", "normal", 15, 10},
		{"speed", "speed", 5, 10},
		{"sudden_death", "sudden_death", 10, 20},
		{"bogus", "normal", 15, 10},
		{"", "normal", 15, 10},
	}

	manager := NewRoomManager()
	for _, tc := range cases {
		r := manager.CreateRoom("Topic", tc.requested, newTestPlayer("p-"+tc.requested, "P"), &MockBroadcaster{})
		if r.GameMode != tc.mode {
			t.Errorf("mode %q: expected %q, got %q", tc.requested, tc.mode, r.GameMode)
		}
		if r.TimePerQuestion != tc.timePerQ || r.QuestionCount != tc.questions {
			t.Errorf("mode %q: expected %d/%d, got %d/%d",
				tc.requested, tc.timePerQ, tc.questions, r.TimePerQuestion, r.QuestionCount)
		}
	}
}

func TestSeatGuestIsSingleUse(t *testing.T) {
	manager := NewRoomManager()
	r := manager.CreateRoom("Topic", "normal", newTestPlayer("host", "Alice"), &MockBroadcaster{})

	guest := newTestPlayer("guest", "Bob")
	if !r.SeatGuest(guest) {
		t.Fatal("first guest should be seated")
	}
	if r.SeatGuest(newTestPlayer("third", "Carol")) {
		t.Fatal("a room holds at most two players")
	}

	if len(r.Players()) != 2 {
		t.Errorf("expected 2 occupants, got %d", len(r.Players()))
	}
	if opp := r.Opponent(r.Host()); opp != guest {
		t.Error("host's opponent should be the guest")
	}
	if opp := r.Opponent(guest); opp != r.Host() {
		t.Error("guest's opponent should be the host")
	}

	p, found := r.PlayerByID("guest")
	if !found || p != guest {
		t.Error("PlayerByID should resolve the guest by session id")
	}
	if _, found := r.PlayerByID("nobody"); found {
		t.Error("PlayerByID should miss unknown ids")
	}
}

func TestQuestionReadiness(t *testing.T) {
	manager := NewRoomManager()
	r := manager.CreateRoom("Topic", "normal", newTestPlayer("host", "Alice"), &MockBroadcaster{})

	if r.Ready() {
		t.Fatal("a fresh room has no questions and is not answerable")
	}

	r.SetQuestions([]models.Question{{Question: "Q", Options: []string{"A", "B", "C", "D"}, CorrectIndex: 0}})
	if !r.Ready() {
		t.Fatal("room should be answerable once the batch lands")
	}

	r.ClearQuestions()
	if r.Ready() || r.Questions != nil {
		t.Fatal("ClearQuestions should close the readiness gate")
	}
}

func TestEvictIdleRemovesOnlyStaleRooms(t *testing.T) {
	manager := NewRoomManager()
	stale := manager.CreateRoom("Topic", "normal", newTestPlayer("p1", "Alice"), &MockBroadcaster{})
	fresh := manager.CreateRoom("Topic", "normal", newTestPlayer("p2", "Bob"), &MockBroadcaster{})

	stale.Lock()
	stale.LastActive = time.Now().Add(-time.Hour)
	stale.Unlock()

	if evicted := manager.EvictIdle(30 * time.Minute); evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, exists := manager.GetRoom(stale.Code); exists {
		t.Error("stale room should be gone")
	}
	if _, exists := manager.GetRoom(fresh.Code); !exists {
		t.Error("fresh room should survive")
	}
}

func TestPlayerResetForRematch(t *testing.T) {
	p := newTestPlayer("p1", "Alice")
	p.Status = PlayerEliminated
	p.QuestionIndex = 7
	p.Score = 420
	p.Streak = 2
	p.BestStreak = 5
	p.CorrectAnswers = 6
	p.TotalTime = 33.5
	p.AnswerTimes = []float64{3, 4, 5}
	p.PowerUps = models.PowerUps{}
	p.DoubleActive = true
	p.FrozenUntil = time.Now().Add(time.Second)

	p.ResetForRematch()

	if p.Status != PlayerActive || p.Done() {
		t.Error("reset player should be active")
	}
	if p.QuestionIndex != 0 || p.Score != 0 || p.Streak != 0 || p.BestStreak != 0 || p.CorrectAnswers != 0 {
		t.Errorf("counters not reset: %+v", p)
	}
	if p.TotalTime != 0 || p.AnswerTimes != nil {
		t.Error("timing history not reset")
	}
	if p.PowerUps != (models.PowerUps{FiftyFifty: 1, Freeze: 1, Double: 1}) {
		t.Errorf("power-ups should recharge to 1 each, got %+v", p.PowerUps)
	}
	if p.DoubleActive || !p.FrozenUntil.IsZero() {
		t.Error("one-shot modifiers should be cleared")
	}
	if p.Name != "Alice" {
		t.Error("identity must survive a rematch")
	}
}

func TestPlayerFrozen(t *testing.T) {
	p := newTestPlayer("p1", "Alice")
	now := time.Now()

	if p.Frozen(now) {
		t.Error("players start unfrozen")
	}
	p.FrozenUntil = now.Add(3 * time.Second)
	if !p.Frozen(now) {
		t.Error("player should be frozen before the deadline")
	}
	if p.Frozen(now.Add(4 * time.Second)) {
		t.Error("freeze lapses at the deadline")
	}
}

func TestPlayerAvgTime(t *testing.T) {
	p := newTestPlayer("p1", "Alice")
	if p.AvgTime() != 0 {
		t.Error("no answers means average 0")
	}
	p.AnswerTimes = []float64{4, 6}
	p.TotalTime = 10
	if p.AvgTime() != 5 {
		t.Errorf("expected average 5, got %v", p.AvgTime())
	}
}
