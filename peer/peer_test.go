package peer

import (
	"net"
	"sync"
	"testing"
	"time"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (m *MockConnection) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return nil
}
func (m *MockConnection) ReadFrame() ([]byte, error) { return nil, nil }
func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
func (m *MockConnection) RemoteAddr() net.Addr                { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration) {}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	p := NewPeer(7, "alice", &MockConnection{})

	if old := manager.Add(p); old != nil {
		t.Fatal("Add should not report a replaced peer for a new id")
	}
	if manager.Count() != 1 {
		t.Fatalf("Expected peer count to be 1, got %d", manager.Count())
	}

	got, exists := manager.Get(7)
	if !exists || got != p {
		t.Fatal("Get should return the same peer instance")
	}

	if !manager.Remove(p) {
		t.Fatal("Remove should report the peer was removed")
	}
	if _, exists := manager.Get(7); exists {
		t.Fatal("Get should not find the removed peer")
	}
}

func TestManager_ReplaceKeepsNewest(t *testing.T) {
	manager := NewManager()
	first := NewPeer(7, "alice", &MockConnection{})
	second := NewPeer(7, "alice", &MockConnection{})

	manager.Add(first)
	if old := manager.Add(second); old != first {
		t.Fatal("Add should return the replaced peer")
	}

	// The stale connection closing must not remove its replacement.
	if manager.Remove(first) {
		t.Fatal("Remove should ignore a stale peer")
	}
	if got, _ := manager.Get(7); got != second {
		t.Fatal("the replacement peer should still be registered")
	}
}

func TestPeer_SendTouches(t *testing.T) {
	conn := &MockConnection{}
	p := NewPeer(1, "bob", conn)
	before := p.LastActive()

	time.Sleep(time.Millisecond)
	if err := p.Send([]byte{1, 2}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if !p.LastActive().After(before) {
		t.Error("Send should update LastActive")
	}
	if len(conn.sent) != 1 {
		t.Errorf("Expected 1 frame sent, got %d", len(conn.sent))
	}
}

func TestManager_All(t *testing.T) {
	manager := NewManager()
	for i := uint64(1); i <= 3; i++ {
		manager.Add(NewPeer(i, "p", &MockConnection{}))
	}
	if len(manager.All()) != 3 {
		t.Fatalf("Expected 3 peers, got %d", len(manager.All()))
	}
}
