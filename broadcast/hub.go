// broadcast/hub.go
package broadcast

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/peer"
)

// Hub is the host side transport: one websocket per connected peer.
type Hub struct {
	peers *peer.Manager
}

func NewHub(peers *peer.Manager) *Hub {
	return &Hub{peers: peers}
}

func (h *Hub) SendTo(ctx context.Context, peerID uint64, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := h.peers.Get(peerID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrPeerNotConnected, peerID)
	}
	return p.Send(data)
}

func (h *Hub) Broadcast(ctx context.Context, data []byte, exclude uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var errs []error
	for _, p := range h.peers.All() {
		if p.ID == exclude {
			continue
		}
		if err := p.Send(data); err != nil {
			// 发送失败的连接由读循环负责清理
			errs = append(errs, fmt.Errorf("peer %d: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// InitializeConnections checks that every lobby member has dialed in. Peers
// connect to the host, so there is nothing to open here.
func (h *Hub) InitializeConnections(peerIDs []uint64) {
	for _, id := range peerIDs {
		if _, ok := h.peers.Get(id); !ok {
			logger.Log.Warnf("lobby member %d has no open connection", id)
		}
	}
}

func (h *Hub) CloseAll() {
	for _, p := range h.peers.All() {
		if err := p.Close(); err != nil {
			logger.Log.Debugf("close peer %d: %v", p.ID, err)
		}
		h.peers.Remove(p)
	}
}
