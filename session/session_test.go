package session

import (
	"net"
	"testing"
	"time"

	"github.com/brainduel/gameserver/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []string
}

func (m *MockConnection) Send(event string, v interface{}) error {
	m.sent = append(m.sent, event)
	return nil
}

func (m *MockConnection) ReadEvent() (*network.Event, error)  { return nil, nil }
func (m *MockConnection) Close() error                        { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration) {}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("expected session count 1, got %d", manager.Count())
	}

	retrieved, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrieved != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("expected session count 0 after removal, got %d", manager.Count())
	}
	if _, exists = manager.Get(sessionID); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestSession_SendWritesToConnection(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	before := sess.LastActive

	time.Sleep(time.Millisecond)
	if err := sess.Send("score_update", map[string]int{"host": 10}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(conn.sent) != 1 || conn.sent[0] != "score_update" {
		t.Errorf("expected one score_update on the wire, got %v", conn.sent)
	}
	if !sess.LastActive.After(before) {
		t.Error("Send should refresh LastActive")
	}
}

func TestSessionIdentityFields(t *testing.T) {
	sess := NewSession("abc", &MockConnection{})
	if sess.GetID() != "abc" {
		t.Errorf("expected id abc, got %s", sess.GetID())
	}
	if sess.RoomCode != "" || sess.Name != "" {
		t.Error("fresh sessions carry no room or name")
	}
}
