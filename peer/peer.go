// peer/peer.go
package peer

import (
	"sync"
	"time"

	"github.com/wfunc/impostor/network"
)

// Peer is one connected participant as seen by the host.
type Peer struct {
	ID         uint64
	Name       string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewPeer(id uint64, name string, conn network.Connection) *Peer {
	now := time.Now()
	return &Peer{
		ID:         id,
		Name:       name,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (p *Peer) Send(data []byte) error {
	p.Touch()
	return p.Conn.Send(data)
}

// Touch records activity from or towards the peer.
func (p *Peer) Touch() {
	p.mutex.Lock()
	p.lastActive = time.Now()
	p.mutex.Unlock()
}

func (p *Peer) LastActive() time.Time {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.lastActive
}

func (p *Peer) Close() error {
	return p.Conn.Close()
}

// Peer管理器
type Manager struct {
	peers map[uint64]*Peer
	mutex sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		peers: make(map[uint64]*Peer),
	}
}

// Add registers p and returns the peer it replaced, if any.
func (m *Manager) Add(p *Peer) *Peer {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	old := m.peers[p.ID]
	m.peers[p.ID] = p
	return old
}

// Remove deletes id only while it still maps to p, so a stale connection
// cannot evict the one that replaced it.
func (m *Manager) Remove(p *Peer) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if cur, ok := m.peers[p.ID]; ok && cur == p {
		delete(m.peers, p.ID)
		return true
	}
	return false
}

func (m *Manager) Get(id uint64) (*Peer, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	p, exists := m.peers[id]
	return p, exists
}

// All returns a snapshot of the connected peers.
func (m *Manager) All() []*Peer {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	result := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		result = append(result, p)
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.peers)
}
