package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/impostor/broadcast"
	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/network"
	"github.com/wfunc/impostor/state"
)

// MockMetrics is a test double for the Metrics interface.
type MockMetrics struct {
	mu       sync.Mutex
	received map[string]int
	errors   map[string]int
	handled  int
	players  int
}

func newMockMetrics() *MockMetrics {
	return &MockMetrics{received: make(map[string]int), errors: make(map[string]int)}
}

func (m *MockMetrics) IncMessagesReceived(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received[t]++
}

func (m *MockMetrics) IncMessageErrors(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *MockMetrics) ObserveHandleLatency(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handled++
}

func (m *MockMetrics) SetPlayers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = n
}

func newTestRoom(t *testing.T, m Metrics) (*Room, context.CancelFunc, chan error) {
	t.Helper()
	bus := broadcast.NewBus()
	ep := bus.Attach(1, func(uint64, []byte) {})
	s, err := game.New(game.Options{LocalID: 1, LocalName: "host", IsHost: true, Transport: ep})
	if err != nil {
		t.Fatalf("game.New: %v", err)
	}
	r := NewRoom("test_room", s, 5*time.Millisecond, m)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return r, cancel, done
}

func TestRoom_DoRunsOnLoop(t *testing.T) {
	r, cancel, _ := newTestRoom(t, nil)
	defer cancel()

	var phase state.Phase
	if err := r.Do(context.Background(), func(s *game.Session) {
		if err := s.OpenLobby(); err != nil {
			t.Errorf("OpenLobby: %v", err)
		}
		phase = s.Phase()
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if phase != state.PhaseLobby {
		t.Errorf("Expected phase %s, got %s", state.PhaseLobby, phase)
	}
}

func TestRoom_ConnectAndDisconnect(t *testing.T) {
	m := newMockMetrics()
	r, cancel, _ := newTestRoom(t, m)
	defer cancel()

	_ = r.Do(context.Background(), func(s *game.Session) { _ = s.OpenLobby() })
	if err := r.Connect(2, "bob"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	var count int
	_ = r.Do(context.Background(), func(s *game.Session) { count = len(s.Players()) })
	if count != 2 {
		t.Errorf("Expected 2 players after connect, got %d", count)
	}
	m.mu.Lock()
	if m.players != 2 {
		t.Errorf("Expected players gauge 2, got %d", m.players)
	}
	m.mu.Unlock()

	if err := r.Disconnect(2); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	_ = r.Do(context.Background(), func(s *game.Session) { count = len(s.Players()) })
	if count != 1 {
		t.Errorf("Expected 1 player after disconnect, got %d", count)
	}
}

func TestRoom_DeliverCountsErrors(t *testing.T) {
	m := newMockMetrics()
	r, cancel, _ := newTestRoom(t, m)
	defer cancel()

	_ = r.Do(context.Background(), func(s *game.Session) { _ = s.OpenLobby() })
	_ = r.Connect(2, "bob")

	// 未知类型
	_ = r.Deliver(2, []byte{200})
	// 大厅阶段提交线索会被拒绝
	clue := network.Encode(network.ClueSubmitted{ID: 2, Clue: "hint"})
	_ = r.Deliver(2, clue)
	_ = r.Do(context.Background(), func(*game.Session) {})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors["protocol"] != 1 {
		t.Errorf("Expected 1 protocol error, got %d", m.errors["protocol"])
	}
	if m.errors["rejected"] != 1 {
		t.Errorf("Expected 1 rejected message, got %d", m.errors["rejected"])
	}
	if m.received[network.MsgTypeClueSubmitted.String()] != 1 {
		t.Errorf("Expected ClueSubmitted to be counted once, got %v", m.received)
	}
	if m.handled != 2 {
		t.Errorf("Expected 2 handled frames, got %d", m.handled)
	}
}

func TestRoom_Close(t *testing.T) {
	r, cancel, done := newTestRoom(t, nil)
	defer cancel()

	r.Close()
	r.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Run to return nil after Close, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after Close")
	}

	if err := r.Do(context.Background(), func(*game.Session) {}); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed, got %v", err)
	}
}

func TestRoom_ContextCancel(t *testing.T) {
	r, cancel, done := newTestRoom(t, nil)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	r.Close()
}
